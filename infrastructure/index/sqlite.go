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

// ErrSQLiteIndexInitializationFailed indicates SQLite index initialization
// failed.
var ErrSQLiteIndexInitializationFailed = errors.New("failed to initialize SQLite vector index")

// SQLiteIndex implements document.VectorIndex for SQLite. Embeddings are
// stored as JSON and ranked in memory with an exact cosine-distance scan.
type SQLiteIndex struct {
	repo        database.Repository[SQLiteDocumentEntity, SQLiteDocumentEntity]
	collections database.Repository[CollectionEntity, CollectionEntity]
	collection  string
	logger      *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewSQLiteIndex creates a SQLiteIndex for the named collection.
func NewSQLiteIndex(db database.Database, collection string, logger *slog.Logger) *SQLiteIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteIndex{
		repo:        newSQLiteDocumentRepository(db, documentsTable(collection)),
		collections: newCollectionRepository(db),
		collection:  collection,
		logger:      logger,
	}
}

func (s *SQLiteIndex) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := s.createTables(ctx); err != nil {
		return errors.Join(ErrSQLiteIndexInitializationFailed, err)
	}

	s.initialized = true
	return nil
}

func (s *SQLiteIndex) createTables(ctx context.Context) error {
	// Raw SQL because GORM's AutoMigrate caches schemas by type, which
	// conflicts with our dynamic per-collection table names.
	createDocumentsSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    position INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id VARCHAR(255) NOT NULL UNIQUE,
    text TEXT NOT NULL,
    metadata JSON,
    embedding JSON NOT NULL,
    created_at DATETIME
)`, s.repo.Table())

	if err := s.repo.DB(ctx).Exec(createDocumentsSQL).Error; err != nil {
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
func (s *SQLiteIndex) Upsert(ctx context.Context, entries []document.Entry) error {
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

	// Transactions do not inherit .Table() so the table name is re-applied
	// inside the callback.
	return db.Transaction(func(tx *gorm.DB) error {
		if dimension == 0 {
			if err := recordDimension(tx, s.collection, expected); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			entity := SQLiteDocumentEntity{
				DocID:     entry.ID(),
				Text:      entry.Text(),
				Metadata:  MetadataJSON(entry.Metadata()),
				Embedding: Float64Slice(entry.Embedding()),
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
func (s *SQLiteIndex) Query(ctx context.Context, embedding []float64, k int) ([]document.Match, error) {
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

	var entities []SQLiteDocumentEntity
	if err := s.repo.DB(ctx).Find(&entities).Error; err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return []document.Match{}, nil
	}

	vectors := make([]StoredVector, 0, len(entities))
	byID := make(map[string]SQLiteDocumentEntity, len(entities))
	for _, e := range entities {
		if len(e.Embedding) == 0 {
			s.logger.Warn("skipping empty embedding", "doc_id", e.DocID)
			continue
		}
		vectors = append(vectors, NewStoredVector(e.DocID, e.Position, e.Embedding))
		byID[e.DocID] = e
	}

	nearest := TopKNearest(embedding, vectors, k)

	matches := make([]document.Match, len(nearest))
	for i, m := range nearest {
		entity := byID[m.DocID()]
		doc := document.New(entity.DocID, entity.Text, document.Metadata(entity.Metadata))
		matches[i] = document.NewMatch(doc, m.Distance())
	}
	return matches, nil
}

// Get returns the document with the given id.
func (s *SQLiteIndex) Get(ctx context.Context, id string) (document.Document, error) {
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
func (s *SQLiteIndex) GetAll(ctx context.Context) ([]document.Document, error) {
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
func (s *SQLiteIndex) Delete(ctx context.Context, ids []string) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteBy(ctx, document.WithDocIDIn(ids))
}

// Count returns the number of stored entries.
func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx)
}

// Reset removes all entries. The collection row (dimension, metric) is
// kept so a rebuilt collection keeps its shape.
func (s *SQLiteIndex) Reset(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	return s.repo.DB(ctx).Exec(fmt.Sprintf("DELETE FROM %s", s.repo.Table())).Error
}

var _ document.VectorIndex = (*SQLiteIndex)(nil)
