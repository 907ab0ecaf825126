package document

import "errors"

// Error kinds surfaced by the store and its collaborators. Callers match
// with errors.Is; wrapped causes carry the human-readable detail.
var (
	// ErrInvalidArgument indicates a rejected input: empty text, mismatched
	// batch lengths, a non-positive result count, or malformed metadata.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates a document id that does not exist at the store
	// boundary. The index itself treats deletes of unknown ids as no-ops.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding indicates the encoding capability failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStorage indicates a persistence-layer read or write failure.
	ErrStorage = errors.New("storage failure")

	// ErrDimensionMismatch indicates an embedding whose length disagrees
	// with the collection's recorded dimensionality. Vectors are never
	// silently truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
