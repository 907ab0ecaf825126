package document

import "context"

// VectorIndex persists (id, embedding, text, metadata) tuples for one
// collection and answers nearest-neighbor queries under cosine distance.
type VectorIndex interface {
	// Upsert inserts or replaces entries by id as a single atomic batch:
	// either all entries become visible or none do. An entry whose embedding
	// length disagrees with the collection's recorded dimension fails the
	// whole batch with ErrDimensionMismatch.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to k live entries sorted by ascending cosine distance
	// to the given embedding. Ties are broken by insertion order, earlier
	// entries first.
	Query(ctx context.Context, embedding []float64, k int) ([]Match, error)

	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)

	// GetAll returns every live document in insertion order. Embeddings are
	// not part of the projection.
	GetAll(ctx context.Context) ([]Document, error)

	// Delete removes the entries with the given ids and returns how many
	// rows were removed. Unknown ids are silently ignored.
	Delete(ctx context.Context, ids []string) (int64, error)

	// Count returns the number of live entries.
	Count(ctx context.Context) (int64, error)

	// Reset removes all entries. The collection configuration (dimension,
	// metric) is preserved.
	Reset(ctx context.Context) error
}
