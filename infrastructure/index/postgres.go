package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPostgresIndexInitializationFailed indicates PostgreSQL index
// initialization failed.
var ErrPostgresIndexInitializationFailed = errors.New("failed to initialize PostgreSQL vector index")

// pgCosineSearchTemplate ranks rows with the pgvector <=> operator, which
// returns cosine distance directly. Position breaks distance ties so
// equally near documents rank in insertion order.
const pgCosineSearchTemplate = `
SELECT position, doc_id, text, metadata, embedding <=> ? AS distance
FROM %s
ORDER BY distance ASC, position ASC
LIMIT ?`

// pgZeroVectorScanTemplate serves zero-magnitude queries, where cosine is
// undefined. Every document is distance 1, so insertion order decides.
const pgZeroVectorScanTemplate = `
SELECT position, doc_id, text, metadata
FROM %s
ORDER BY position ASC
LIMIT ?`

// PostgresIndex implements document.VectorIndex for PostgreSQL with the
// pgvector extension. Ranking happens in the database via <=>.
type PostgresIndex struct {
	repo        database.Repository[PgDocumentEntity, PgDocumentEntity]
	collections database.Repository[CollectionEntity, CollectionEntity]
	collection  string
	logger      *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewPostgresIndex creates a PostgresIndex for the named collection.
func NewPostgresIndex(db database.Database, collection string, logger *slog.Logger) *PostgresIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresIndex{
		repo:        newPgDocumentRepository(db, documentsTable(collection)),
		collections: newCollectionRepository(db),
		collection:  collection,
		logger:      logger,
	}
}

func (s *PostgresIndex) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := s.createTables(ctx); err != nil {
		return errors.Join(ErrPostgresIndexInitializationFailed, err)
	}

	s.initialized = true
	return nil
}

func (s *PostgresIndex) createTables(ctx context.Context) error {
	db := s.repo.DB(ctx)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	// The embedding column is untyped vector: the dimension is enforced by
	// the collection config row, not the schema, so one table shape serves
	// every model.
	createDocumentsSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    position BIGSERIAL PRIMARY KEY,
    doc_id VARCHAR(255) NOT NULL UNIQUE,
    text TEXT NOT NULL,
    metadata JSONB,
    embedding VECTOR NOT NULL,
    created_at TIMESTAMPTZ
)`, s.repo.Table())

	if err := db.Exec(createDocumentsSQL).Error; err != nil {
		return err
	}

	createCollectionsSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name VARCHAR(255) PRIMARY KEY,
    dimension INTEGER NOT NULL DEFAULT 0,
    metric VARCHAR(32) NOT NULL
)`, collectionsTable)

	if err := s.collections.DB(ctx).Exec(createCollectionsSQL).Error; err != nil {
		return err
	}

	return ensureCollectionRow(ctx, s.collections, s.collection)
}

// Upsert inserts or replaces entries by doc id in a single transaction.
func (s *PostgresIndex) Upsert(ctx context.Context, entries []document.Entry) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	dimension, err := collectionDimension(ctx, s.collections, s.collection)
	if err != nil {
		return err
	}

	expected, err := batchDimension(entries, dimension)
	if err != nil {
		return err
	}

	tableName := s.repo.Table()
	db := s.repo.DB(ctx)

	return db.Transaction(func(tx *gorm.DB) error {
		if dimension == 0 {
			if err := recordDimension(tx, s.collection, expected); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			entity := PgDocumentEntity{
				DocID:     entry.ID(),
				Text:      entry.Text(),
				Metadata:  MetadataJSON(entry.Metadata()),
				Embedding: database.NewPgVector(entry.Embedding()),
			}
			err := tx.Table(tableName).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "doc_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"text", "metadata", "embedding"}),
			}).Create(&entity).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Query returns up to k entries by ascending cosine distance to the
// embedding, ties broken by insertion order.
func (s *PostgresIndex) Query(ctx context.Context, embedding []float64, k int) ([]document.Match, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: non-positive result limit %d", document.ErrInvalidArgument, k)
	}

	dimension, err := collectionDimension(ctx, s.collections, s.collection)
	if err != nil {
		return nil, err
	}
	if dimension > 0 && len(embedding) != dimension {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, collection expects %d",
			document.ErrDimensionMismatch, len(embedding), dimension)
	}

	if isZeroVector(embedding) {
		return s.zeroVectorScan(ctx, k)
	}

	var rows []struct {
		Position int64        `gorm:"column:position"`
		DocID    string       `gorm:"column:doc_id"`
		Text     string       `gorm:"column:text"`
		Metadata MetadataJSON `gorm:"column:metadata"`
		Distance float64      `gorm:"column:distance"`
	}

	sql := fmt.Sprintf(pgCosineSearchTemplate, s.repo.Table())
	queryVector := database.NewPgVector(embedding).String()
	if err := s.repo.DB(ctx).Raw(sql, queryVector, k).Scan(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]document.Match, len(rows))
	for i, row := range rows {
		doc := document.New(row.DocID, row.Text, document.Metadata(row.Metadata))
		matches[i] = document.NewMatch(doc, row.Distance)
	}
	return matches, nil
}

// zeroVectorScan handles zero-magnitude queries: cosine is undefined, so
// every document gets distance 1 and insertion order decides the ranking.
func (s *PostgresIndex) zeroVectorScan(ctx context.Context, k int) ([]document.Match, error) {
	var rows []struct {
		Position int64        `gorm:"column:position"`
		DocID    string       `gorm:"column:doc_id"`
		Text     string       `gorm:"column:text"`
		Metadata MetadataJSON `gorm:"column:metadata"`
	}

	sql := fmt.Sprintf(pgZeroVectorScanTemplate, s.repo.Table())
	if err := s.repo.DB(ctx).Raw(sql, k).Scan(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]document.Match, len(rows))
	for i, row := range rows {
		doc := document.New(row.DocID, row.Text, document.Metadata(row.Metadata))
		matches[i] = document.NewMatch(doc, 1.0)
	}
	return matches, nil
}

// Get returns the document with the given id.
func (s *PostgresIndex) Get(ctx context.Context, id string) (document.Document, error) {
	if err := s.initialize(ctx); err != nil {
		return document.Document{}, err
	}

	entity, err := s.repo.FindOne(ctx, document.WithDocID(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return document.Document{}, fmt.Errorf("%w: document %q", document.ErrNotFound, id)
		}
		return document.Document{}, err
	}
	return document.New(entity.DocID, entity.Text, document.Metadata(entity.Metadata)), nil
}

// GetAll returns every stored document in insertion order.
func (s *PostgresIndex) GetAll(ctx context.Context) ([]document.Document, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}

	entities, err := s.repo.Find(ctx, document.WithOrderAsc("position"))
	if err != nil {
		return nil, err
	}

	docs := make([]document.Document, len(entities))
	for i, e := range entities {
		docs[i] = document.New(e.DocID, e.Text, document.Metadata(e.Metadata))
	}
	return docs, nil
}

// Delete removes the entries with the given ids, returning how many rows
// were removed. Unknown ids are ignored.
func (s *PostgresIndex) Delete(ctx context.Context, ids []string) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteBy(ctx, document.WithDocIDIn(ids))
}

// Count returns the number of stored entries.
func (s *PostgresIndex) Count(ctx context.Context) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx)
}

// Reset removes all entries. The collection row (dimension, metric) is
// kept.
func (s *PostgresIndex) Reset(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	return s.repo.DB(ctx).Exec(fmt.Sprintf("DELETE FROM %s", s.repo.Table())).Error
}

func isZeroVector(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

var _ document.VectorIndex = (*PostgresIndex)(nil)
