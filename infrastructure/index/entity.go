package index

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/helixml/parastore/internal/database"
)

// CosineMetric is the only distance metric the indexes support.
const CosineMetric = "cosine"

// Float64Slice is a custom type for JSON serialization of []float64 in
// SQLite.
type Float64Slice []float64

// Scan implements sql.Scanner for reading JSON from SQLite.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Float64Slice", value)
	}

	return json.Unmarshal(data, f)
}

// Value implements driver.Valuer for writing JSON to SQLite.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// MetadataJSON stores document metadata as a JSON column. JSON round-trips
// integers back as float64, which callers must tolerate.
type MetadataJSON map[string]any

// Scan implements sql.Scanner.
func (m *MetadataJSON) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MetadataJSON", value)
	}

	if len(data) == 0 {
		*m = nil
		return nil
	}

	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer.
func (m MetadataJSON) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// SQLiteDocumentEntity represents a stored document with its embedding in
// SQLite. Table routing is done via .Table(name) at the call site because
// GORM caches schemas by type and dynamic TableName() does not work
// across multiple table names for the same struct type.
type SQLiteDocumentEntity struct {
	Position  int64        `gorm:"column:position;primaryKey;autoIncrement"`
	DocID     string       `gorm:"column:doc_id;uniqueIndex"`
	Text      string       `gorm:"column:text"`
	Metadata  MetadataJSON `gorm:"column:metadata;type:json"`
	Embedding Float64Slice `gorm:"column:embedding;type:json"`
	CreatedAt time.Time    `gorm:"column:created_at"`
}

// PgDocumentEntity represents a stored document with its embedding in
// PostgreSQL, using a pgvector column.
type PgDocumentEntity struct {
	Position  int64             `gorm:"column:position;primaryKey;autoIncrement"`
	DocID     string            `gorm:"column:doc_id;uniqueIndex"`
	Text      string            `gorm:"column:text"`
	Metadata  MetadataJSON      `gorm:"column:metadata;type:jsonb"`
	Embedding database.PgVector `gorm:"column:embedding;type:vector"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

// CollectionEntity persists per-collection configuration: the embedding
// dimension recorded at first insert and the distance metric. It survives
// Reset so a rebuilt collection keeps its shape.
type CollectionEntity struct {
	Name      string `gorm:"column:name;primaryKey"`
	Dimension int    `gorm:"column:dimension"`
	Metric    string `gorm:"column:metric"`
}

// collectionsTable is the shared table all collection config rows live in.
const collectionsTable = "parastore_collections"

// documentsTable returns the per-collection documents table name.
func documentsTable(collection string) string {
	return fmt.Sprintf("parastore_%s_documents", collection)
}

// identityMapper is an EntityMapper where D = E (entity IS the domain
// type). Document entities are purely infrastructure, so mapping is a
// no-op.
type identityMapper[E any] struct{}

func (identityMapper[E]) ToDomain(entity E) E { return entity }
func (identityMapper[E]) ToModel(domain E) E  { return domain }

// newSQLiteDocumentRepository creates a Repository for
// SQLiteDocumentEntity with a dynamic table name.
func newSQLiteDocumentRepository(db database.Database, tableName string) database.Repository[SQLiteDocumentEntity, SQLiteDocumentEntity] {
	return database.NewRepositoryForTable[SQLiteDocumentEntity, SQLiteDocumentEntity](
		db,
		identityMapper[SQLiteDocumentEntity]{},
		"document",
		tableName,
	)
}

// newPgDocumentRepository creates a Repository for PgDocumentEntity with
// a dynamic table name.
func newPgDocumentRepository(db database.Database, tableName string) database.Repository[PgDocumentEntity, PgDocumentEntity] {
	return database.NewRepositoryForTable[PgDocumentEntity, PgDocumentEntity](
		db,
		identityMapper[PgDocumentEntity]{},
		"document",
		tableName,
	)
}
