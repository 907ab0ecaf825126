// Package index implements persistent vector indexes over SQLite and
// PostgreSQL. SQLite stores embeddings as JSON and ranks in memory;
// PostgreSQL ranks with the pgvector <=> operator.
package index

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical). Returns 0 if
// either vector has zero magnitude, so a zero vector is equally far from
// everything rather than an error.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance computes the cosine distance between two vectors:
// 1 - similarity. 0 means identical direction, 1 means orthogonal (or a
// zero vector), 2 means opposite.
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// StoredVector holds an embedding vector with its document ID and the
// row position it was inserted at. Position breaks distance ties so
// equally near documents rank in insertion order.
type StoredVector struct {
	docID     string
	position  int64
	embedding []float64
}

// NewStoredVector creates a new StoredVector.
func NewStoredVector(docID string, position int64, embedding []float64) StoredVector {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return StoredVector{
		docID:     docID,
		position:  position,
		embedding: vec,
	}
}

// DocID returns the document identifier.
func (v StoredVector) DocID() string { return v.docID }

// Position returns the insertion position.
func (v StoredVector) Position() int64 { return v.position }

// Embedding returns the embedding vector (copy).
func (v StoredVector) Embedding() []float64 {
	result := make([]float64, len(v.embedding))
	copy(result, v.embedding)
	return result
}

// DistanceMatch holds a document ID and its cosine distance to a query.
type DistanceMatch struct {
	docID    string
	distance float64
	position int64
}

// NewDistanceMatch creates a new DistanceMatch.
func NewDistanceMatch(docID string, distance float64, position int64) DistanceMatch {
	return DistanceMatch{
		docID:    docID,
		distance: distance,
		position: position,
	}
}

// DocID returns the document identifier.
func (m DistanceMatch) DocID() string { return m.docID }

// Distance returns the cosine distance.
func (m DistanceMatch) Distance() float64 { return m.distance }

// Position returns the insertion position of the matched document.
func (m DistanceMatch) Position() int64 { return m.position }

// TopKNearest finds the k vectors nearest to the query by cosine
// distance. Results are sorted by distance ascending; ties rank in
// insertion order. If k exceeds the number of vectors, all are returned.
func TopKNearest(query []float64, vectors []StoredVector, k int) []DistanceMatch {
	if len(vectors) == 0 || k <= 0 {
		return []DistanceMatch{}
	}

	matches := make([]DistanceMatch, 0, len(vectors))
	for _, v := range vectors {
		distance := CosineDistance(query, v.embedding)
		matches = append(matches, NewDistanceMatch(v.docID, distance, v.position))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].position < matches[j].position
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
