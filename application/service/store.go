// Package service implements the document store use cases on top of an
// embedding provider and a vector index.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/infrastructure/provider"
)

// DocumentStore stores text paragraphs with embeddings and answers
// similarity searches. Texts are embedded once at insertion time; search
// embeds only the query.
//
// Mutations take an exclusive lock so concurrent readers never observe a
// partially applied batch.
type DocumentStore struct {
	index        document.VectorIndex
	embedder     provider.Embedder
	logger       *slog.Logger
	defaultLimit int
	mu           sync.RWMutex
}

// StoreOption is a functional option for DocumentStore.
type StoreOption func(*DocumentStore)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *DocumentStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultLimit sets the result count advertised to callers that do
// not choose one. Search itself always requires an explicit positive k;
// boundaries substitute DefaultLimit before calling.
func WithDefaultLimit(n int) StoreOption {
	return func(s *DocumentStore) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(idx document.VectorIndex, embedder provider.Embedder, opts ...StoreOption) *DocumentStore {
	s := &DocumentStore{
		index:        idx,
		embedder:     embedder,
		logger:       slog.Default(),
		defaultLimit: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add embeds the text and stores it under a fresh id. The returned
// document carries the generated id.
func (s *DocumentStore) Add(ctx context.Context, text string, metadata document.Metadata) (document.Document, error) {
	if err := validateText(text); err != nil {
		return document.Document{}, err
	}
	if err := metadata.Validate(); err != nil {
		return document.Document{}, err
	}

	embeddings, err := s.embedTexts(ctx, []string{text})
	if err != nil {
		return document.Document{}, err
	}

	id := uuid.NewString()
	entry := document.NewEntry(id, embeddings[0], text, metadata)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Upsert(ctx, []document.Entry{entry}); err != nil {
		return document.Document{}, wrapStorage(err)
	}

	s.logger.Debug("document added", "id", id, "text_len", len(text))
	return entry.Document(), nil
}

// AddBatch embeds all texts and stores them atomically: either every
// document becomes visible or none do. metadatas may be nil, or must
// have one element per text.
func (s *DocumentStore) AddBatch(ctx context.Context, texts []string, metadatas []document.Metadata) ([]document.Document, error) {
	if len(texts) == 0 {
		return []document.Document{}, nil
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("%w: got %d metadata entries for %d texts",
			document.ErrInvalidArgument, len(metadatas), len(texts))
	}
	for i, text := range texts {
		if err := validateText(text); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		if metadatas != nil {
			if err := metadatas[i].Validate(); err != nil {
				return nil, fmt.Errorf("text %d: %w", i, err)
			}
		}
	}

	embeddings, err := s.embedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	entries := make([]document.Entry, len(texts))
	for i, text := range texts {
		var meta document.Metadata
		if metadatas != nil {
			meta = metadatas[i]
		}
		entries[i] = document.NewEntry(uuid.NewString(), embeddings[i], text, meta)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Upsert(ctx, entries); err != nil {
		return nil, wrapStorage(err)
	}

	docs := make([]document.Document, len(entries))
	for i, entry := range entries {
		docs[i] = entry.Document()
	}

	s.logger.Info("batch added", "count", len(docs))
	return docs, nil
}

// DefaultLimit returns the result count used for searches where the
// caller does not pick one.
func (s *DocumentStore) DefaultLimit() int {
	return s.defaultLimit
}

// Search embeds the query and returns up to k documents by ascending
// cosine distance. k must be positive; if it exceeds the number of
// stored documents, all are returned.
func (s *DocumentStore) Search(ctx context.Context, query string, k int) ([]document.Match, error) {
	if err := validateText(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: non-positive result limit %d", document.ErrInvalidArgument, k)
	}

	embeddings, err := s.embedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := s.index.Query(ctx, embeddings[0], k)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return matches, nil
}

// Compare ranks the stored documents against a candidate text. It is
// Search under a name that reads better when the caller is checking a
// new text against the corpus; the candidate is not stored.
func (s *DocumentStore) Compare(ctx context.Context, text string, k int) ([]document.Match, error) {
	return s.Search(ctx, text, k)
}

// Get returns the document with the given id, or ErrNotFound.
func (s *DocumentStore) Get(ctx context.Context, id string) (document.Document, error) {
	if id == "" {
		return document.Document{}, fmt.Errorf("%w: empty document id", document.ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return document.Document{}, wrapStorage(err)
	}
	return doc, nil
}

// GetAll returns every stored document in insertion order.
func (s *DocumentStore) GetAll(ctx context.Context) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.index.GetAll(ctx)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return docs, nil
}

// Delete removes the document with the given id. Deleting an unknown id
// is an error: the caller named a specific document that does not exist.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", document.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.index.Delete(ctx, []string{id})
	if err != nil {
		return wrapStorage(err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: document %q", document.ErrNotFound, id)
	}

	s.logger.Debug("document deleted", "id", id)
	return nil
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, err := s.index.Count(ctx)
	if err != nil {
		return 0, wrapStorage(err)
	}
	return count, nil
}

// Reset removes every stored document. The collection configuration
// (embedding dimension, metric) survives.
func (s *DocumentStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Reset(ctx); err != nil {
		return wrapStorage(err)
	}

	s.logger.Info("store reset")
	return nil
}

// embedTexts runs the embedder and enforces the one-vector-per-text
// contract. Provider failures surface as ErrEmbedding.
func (s *DocumentStore) embedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := s.embedder.Embed(ctx, provider.NewEmbeddingRequest(texts))
	if err != nil {
		return nil, errors.Join(document.ErrEmbedding, err)
	}

	embeddings := resp.Embeddings()
	if len(embeddings) != len(texts) {
		return nil, errors.Join(document.ErrEmbedding,
			fmt.Errorf("got %d embeddings for %d texts", len(embeddings), len(texts)))
	}
	return embeddings, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty text", document.ErrInvalidArgument)
	}
	return nil
}

// wrapStorage classifies an index error: domain sentinels pass through,
// everything else is a storage failure.
func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, document.ErrNotFound) ||
		errors.Is(err, document.ErrDimensionMismatch) ||
		errors.Is(err, document.ErrInvalidArgument) {
		return err
	}
	return errors.Join(document.ErrStorage, err)
}
