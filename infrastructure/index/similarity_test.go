package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero query", []float64{0, 0}, []float64{1, 1}, 0},
		{"zero stored", []float64{1, 1}, []float64{0, 0}, 0},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
		{"scale invariant", []float64{2, 0}, []float64{5, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineDistance_ZeroVectorIsMaximal(t *testing.T) {
	// A zero vector has no direction, so every document is equally far:
	// distance 1, not an error.
	assert.InDelta(t, 1.0, CosineDistance([]float64{0, 0}, []float64{1, 2}), 1e-9)
	assert.InDelta(t, 0.0, CosineDistance([]float64{1, 0}, []float64{3, 0}), 1e-9)
	assert.InDelta(t, 2.0, CosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-9)
}

func TestTopKNearest_Ordering(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector("far", 1, []float64{0, 1}),
		NewStoredVector("near", 2, []float64{1, 0.01}),
		NewStoredVector("exact", 3, []float64{1, 0}),
	}

	matches := TopKNearest([]float64{1, 0}, vectors, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].DocID())
	assert.Equal(t, "near", matches[1].DocID())
	assert.Less(t, matches[0].Distance(), matches[1].Distance())
}

func TestTopKNearest_TieBrokenByInsertionOrder(t *testing.T) {
	// Both vectors are equidistant from the query; the earlier position
	// must come first.
	vectors := []StoredVector{
		NewStoredVector("second", 7, []float64{0, 1}),
		NewStoredVector("first", 3, []float64{0, 1}),
	}

	matches := TopKNearest([]float64{1, 0}, vectors, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].DocID())
	assert.Equal(t, "second", matches[1].DocID())
}

func TestTopKNearest_KExceedsCount(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector("only", 1, []float64{1, 0}),
	}

	matches := TopKNearest([]float64{1, 0}, vectors, 10)
	assert.Len(t, matches, 1)
}

func TestTopKNearest_Empty(t *testing.T) {
	assert.Empty(t, TopKNearest([]float64{1, 0}, nil, 5))
	assert.Empty(t, TopKNearest([]float64{1, 0}, []StoredVector{NewStoredVector("a", 1, []float64{1, 0})}, 0))
}

func TestTopKNearest_ZeroQueryRanksByInsertion(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector("b", 2, []float64{0, 1}),
		NewStoredVector("a", 1, []float64{1, 0}),
	}

	matches := TopKNearest([]float64{0, 0}, vectors, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].DocID())
	assert.InDelta(t, 1.0, matches[0].Distance(), 1e-9)
	assert.Equal(t, "b", matches[1].DocID())
	assert.InDelta(t, 1.0, matches[1].Distance(), 1e-9)
}
