package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/infrastructure/index"
	"github.com/helixml/parastore/infrastructure/provider"
	"github.com/helixml/parastore/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns canned vectors per text so tests are deterministic.
// Unknown texts fail the request.
type fakeEmbedder struct {
	vectors map[string][]float64
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors: map[string][]float64{
			"cats are mammals":            {1, 0},
			"feline animals":              {0.9, 0.1},
			"the stock market fell today": {0, 1},
			"tell me about cats":          {0.95, 0.05},
		},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	texts := req.Texts()
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			return provider.EmbeddingResponse{}, fmt.Errorf("no canned vector for %q", text)
		}
		embeddings[i] = vec
	}
	return provider.NewEmbeddingResponse(embeddings, provider.NewUsage(0, 0, 0)), nil
}

func (f *fakeEmbedder) Capacity() int { return 0 }

func (f *fakeEmbedder) Accelerated() bool { return false }

func (f *fakeEmbedder) Close() error { return nil }

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	idx := index.NewSQLiteIndex(testdb.New(t), "test_paragraphs", nil)
	return NewDocumentStore(idx, newFakeEmbedder())
}

func TestDocumentStore_AddAssignsID(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	doc, err := store.Add(ctx, "cats are mammals", nil)
	require.NoError(t, err)

	_, err = uuid.Parse(doc.ID())
	assert.NoError(t, err, "id should be a uuid")
	assert.Equal(t, "cats are mammals", doc.Text())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDocumentStore_AddEmptyText(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(t.Context(), "   ", nil)
	require.ErrorIs(t, err, document.ErrInvalidArgument)
}

func TestDocumentStore_AddInvalidMetadata(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(t.Context(), "cats are mammals", document.Metadata{
		"nested": map[string]any{"not": "allowed"},
	})
	require.ErrorIs(t, err, document.ErrInvalidArgument)
}

func TestDocumentStore_AddEmbeddingFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.Add(ctx, "text the fake embedder does not know", nil)
	require.ErrorIs(t, err, document.ErrEmbedding)

	// Nothing may be stored when embedding fails.
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDocumentStore_SearchRanksBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.AddBatch(ctx, []string{
		"the stock market fell today",
		"cats are mammals",
		"feline animals",
	}, nil)
	require.NoError(t, err)

	matches, err := store.Search(ctx, "tell me about cats", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "cats are mammals", matches[0].Document().Text())
	assert.Equal(t, "feline animals", matches[1].Document().Text())
	assert.Less(t, matches[0].Distance(), matches[1].Distance())
	assert.Greater(t, matches[0].Similarity(), matches[1].Similarity())
}

func TestDocumentStore_SearchKExceedsCount(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.Add(ctx, "cats are mammals", nil)
	require.NoError(t, err)

	matches, err := store.Search(ctx, "tell me about cats", 50)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestDocumentStore_SearchRejectsNonPositiveLimit(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(t.Context(), "tell me about cats", 0)
	require.ErrorIs(t, err, document.ErrInvalidArgument)

	_, err = store.Search(t.Context(), "tell me about cats", -1)
	require.ErrorIs(t, err, document.ErrInvalidArgument)
}

func TestDocumentStore_DefaultLimit(t *testing.T) {
	idx := index.NewSQLiteIndex(testdb.New(t), "test_paragraphs", nil)

	store := NewDocumentStore(idx, newFakeEmbedder())
	assert.Equal(t, 5, store.DefaultLimit())

	store = NewDocumentStore(idx, newFakeEmbedder(), WithDefaultLimit(2))
	assert.Equal(t, 2, store.DefaultLimit())
}

func TestDocumentStore_SearchEmptyQuery(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(t.Context(), "", 3)
	require.ErrorIs(t, err, document.ErrInvalidArgument)
}

func TestDocumentStore_AddBatchMetadataLengthMismatch(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddBatch(t.Context(),
		[]string{"cats are mammals", "feline animals"},
		[]document.Metadata{{"source": "a"}},
	)
	require.ErrorIs(t, err, document.ErrInvalidArgument)

	count, err := store.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDocumentStore_AddBatchEmbeddingFailureInsertsNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.AddBatch(ctx, []string{
		"cats are mammals",
		"unknown text",
	}, nil)
	require.ErrorIs(t, err, document.ErrEmbedding)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDocumentStore_AddBatchEmpty(t *testing.T) {
	store := newTestStore(t)

	docs, err := store.AddBatch(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStore_CompareMatchesSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.AddBatch(ctx, []string{
		"cats are mammals",
		"the stock market fell today",
	}, nil)
	require.NoError(t, err)

	compared, err := store.Compare(ctx, "feline animals", 2)
	require.NoError(t, err)
	searched, err := store.Search(ctx, "feline animals", 2)
	require.NoError(t, err)

	require.Len(t, compared, 2)
	assert.Equal(t, "cats are mammals", compared[0].Document().Text())
	require.Len(t, searched, 2)
	assert.Equal(t, searched[0].Distance(), compared[0].Distance())

	// The compared text is not stored.
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDocumentStore_GetAndGetAll(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	added, err := store.AddBatch(ctx, []string{
		"cats are mammals",
		"feline animals",
	}, []document.Metadata{
		{"source": "bio"},
		{"source": "zoo"},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)

	doc, err := store.Get(ctx, added[0].ID())
	require.NoError(t, err)
	assert.Equal(t, "cats are mammals", doc.Text())
	assert.Equal(t, "bio", doc.Metadata()["source"])

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, added[0].ID(), all[0].ID())
	assert.Equal(t, added[1].ID(), all[1].ID())
}

func TestDocumentStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(t.Context(), uuid.NewString())
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestDocumentStore_DeleteStrict(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	doc, err := store.Add(ctx, "cats are mammals", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, doc.ID()))

	// A second delete of the same id names a document that no longer
	// exists.
	err = store.Delete(ctx, doc.ID())
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestDocumentStore_ResetThenAdd(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.Add(ctx, "cats are mammals", nil)
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = store.Add(ctx, "feline animals", nil)
	require.NoError(t, err)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
