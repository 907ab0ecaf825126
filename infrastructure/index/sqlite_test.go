package index

import (
	"testing"

	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	return NewSQLiteIndex(testdb.New(t), "test_paragraphs", nil)
}

func entry(id string, vec []float64, text string) document.Entry {
	return document.NewEntry(id, vec, text, nil)
}

func TestSQLiteIndex_UpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	err := idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "cats are mammals"),
		entry("b", []float64{0, 1}, "the stock market fell"),
		entry("c", []float64{0.9, 0.1}, "feline animals"),
	})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "a", matches[0].Document().ID())
	assert.Equal(t, "c", matches[1].Document().ID())
	assert.Less(t, matches[0].Distance(), matches[1].Distance())
	assert.InDelta(t, 0.0, matches[0].Distance(), 1e-9)
}

func TestSQLiteIndex_QueryTieBreaksByInsertionOrder(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("first", []float64{0, 1}, "one"),
		entry("second", []float64{0, 1}, "two"),
	}))

	matches, err := idx.Query(ctx, []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].Document().ID())
	assert.Equal(t, "second", matches[1].Document().ID())
}

func TestSQLiteIndex_QueryKExceedsCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
	}))

	matches, err := idx.Query(ctx, []float64{1, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSQLiteIndex_QueryNonPositiveK(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	_, err := idx.Query(ctx, []float64{1, 0}, 0)
	require.ErrorIs(t, err, document.ErrInvalidArgument)

	_, err = idx.Query(ctx, []float64{1, 0}, -3)
	require.ErrorIs(t, err, document.ErrInvalidArgument)
}

func TestSQLiteIndex_QueryZeroVector(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
		entry("b", []float64{0, 1}, "two"),
	}))

	matches, err := idx.Query(ctx, []float64{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Document().ID())
	assert.InDelta(t, 1.0, matches[0].Distance(), 1e-9)
	assert.InDelta(t, 1.0, matches[1].Distance(), 1e-9)
}

func TestSQLiteIndex_UpsertDimensionMismatchFailsBatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
	}))

	err := idx.Upsert(ctx, []document.Entry{
		entry("b", []float64{0, 1}, "two"),
		entry("c", []float64{1, 2, 3}, "three dims"),
	})
	require.ErrorIs(t, err, document.ErrDimensionMismatch)

	// The whole batch must be rejected, including the valid entry.
	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteIndex_QueryDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
	}))

	_, err := idx.Query(ctx, []float64{1, 0, 0}, 1)
	require.ErrorIs(t, err, document.ErrDimensionMismatch)
}

func TestSQLiteIndex_UpsertReplacesByID(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "original"),
	}))
	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{0, 1}, "replaced"),
	}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	doc, err := idx.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "replaced", doc.Text())
}

func TestSQLiteIndex_GetNotFound(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Get(t.Context(), "missing")
	require.ErrorIs(t, err, document.ErrNotFound)
}

func TestSQLiteIndex_GetAllInsertionOrder(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("x", []float64{1, 0}, "one"),
		entry("y", []float64{0, 1}, "two"),
	}))
	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("z", []float64{1, 1}, "three"),
	}))

	docs, err := idx.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "x", docs[0].ID())
	assert.Equal(t, "y", docs[1].ID())
	assert.Equal(t, "z", docs[2].ID())
}

func TestSQLiteIndex_DeleteIgnoresUnknownIDs(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
		entry("b", []float64{0, 1}, "two"),
	}))

	removed, err := idx.Delete(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteIndex_ResetPreservesDimension(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
	}))
	require.NoError(t, idx.Reset(ctx))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The recorded dimension survives the reset, so inserting with a
	// different dimension still fails.
	err = idx.Upsert(ctx, []document.Entry{
		entry("b", []float64{1, 2, 3}, "three dims"),
	})
	require.ErrorIs(t, err, document.ErrDimensionMismatch)

	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		entry("c", []float64{0, 1}, "two dims again"),
	}))
}

func TestSQLiteIndex_MetadataRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	meta := document.Metadata{"source": "wiki", "score": 0.5, "published": true}
	require.NoError(t, idx.Upsert(ctx, []document.Entry{
		document.NewEntry("a", []float64{1, 0}, "text", meta),
	}))

	doc, err := idx.Get(ctx, "a")
	require.NoError(t, err)
	got := doc.Metadata()
	assert.Equal(t, "wiki", got["source"])
	assert.Equal(t, 0.5, got["score"])
	assert.Equal(t, true, got["published"])
}

func TestSQLiteIndex_SeparateCollectionsAreIsolated(t *testing.T) {
	db := testdb.New(t)
	ctx := t.Context()

	first := NewSQLiteIndex(db, "first", nil)
	second := NewSQLiteIndex(db, "second", nil)

	require.NoError(t, first.Upsert(ctx, []document.Entry{
		entry("a", []float64{1, 0}, "one"),
	}))

	count, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
