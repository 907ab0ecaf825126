// Package document defines the core value types of the paragraph store:
// documents, their metadata, search matches, and the vector index contract
// the store persists into.
package document

// Document is the unit of storage: an immutable paragraph of text with an
// opaque id and optional metadata. The embedding derived from the text lives
// in the vector index and is never part of the caller-facing projection.
type Document struct {
	id       string
	text     string
	metadata Metadata
}

// New creates a Document. Metadata is defensively copied; nil becomes an
// empty map so callers never observe a nil metadata projection.
func New(id, text string, metadata Metadata) Document {
	return Document{
		id:       id,
		text:     text,
		metadata: metadata.Clone(),
	}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Text returns the stored paragraph.
func (d Document) Text() string { return d.text }

// Metadata returns a copy of the document metadata.
func (d Document) Metadata() Metadata { return d.metadata.Clone() }

// IsZero reports whether the document is the zero value.
func (d Document) IsZero() bool { return d.id == "" }

// Entry is a document together with its embedding, as handed to the vector
// index at insertion time.
type Entry struct {
	id        string
	embedding []float64
	text      string
	metadata  Metadata
}

// NewEntry creates an Entry. The embedding and metadata are copied.
func NewEntry(id string, embedding []float64, text string, metadata Metadata) Entry {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return Entry{
		id:        id,
		embedding: vec,
		text:      text,
		metadata:  metadata.Clone(),
	}
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Embedding returns a copy of the embedding vector.
func (e Entry) Embedding() []float64 {
	vec := make([]float64, len(e.embedding))
	copy(vec, e.embedding)
	return vec
}

// Dimension returns the embedding length.
func (e Entry) Dimension() int { return len(e.embedding) }

// Text returns the paragraph text.
func (e Entry) Text() string { return e.text }

// Metadata returns a copy of the entry metadata.
func (e Entry) Metadata() Metadata { return e.metadata.Clone() }

// Document returns the document projection of the entry (no embedding).
func (e Entry) Document() Document { return New(e.id, e.text, e.metadata) }

// Match is a single similarity-search result: a document and its cosine
// distance to the query. Distance is the stored metric; similarity is a
// derived display value, never persisted.
type Match struct {
	document Document
	distance float64
}

// NewMatch creates a Match.
func NewMatch(doc Document, distance float64) Match {
	return Match{document: doc, distance: distance}
}

// Document returns the matched document.
func (m Match) Document() Document { return m.document }

// Distance returns the cosine distance to the query (0 identical, 1 no
// similarity for non-negative embeddings, up to 2 for opposite vectors).
func (m Match) Distance() float64 { return m.distance }

// Similarity returns 1 - distance. Derived from the distance on demand.
func (m Match) Similarity() float64 { return 1 - m.distance }
