// Package dto defines the request and response bodies of the v1 API.
package dto

// DocumentAttributes carries the caller-supplied fields of a document.
type DocumentAttributes struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentData is a JSON:API data object for a document.
type DocumentData struct {
	Type       string             `json:"type"`
	ID         string             `json:"id,omitempty"`
	Attributes DocumentAttributes `json:"attributes"`
}

// AddDocumentRequest is the body of POST /documents.
type AddDocumentRequest struct {
	Data DocumentData `json:"data"`
}

// AddBatchRequest is the body of POST /documents/batch.
type AddBatchRequest struct {
	Data []DocumentData `json:"data"`
}

// SearchAttributes carries a similarity search query.
type SearchAttributes struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

// SearchData is the data object of a search request.
type SearchData struct {
	Type       string           `json:"type"`
	Attributes SearchAttributes `json:"attributes"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Data SearchData `json:"data"`
}

// MatchAttributes is one search result: the document plus its distance
// to the query and the derived similarity.
type MatchAttributes struct {
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Distance   float64        `json:"distance"`
	Similarity float64        `json:"similarity"`
}

// CompareAttributes carries a candidate text to rank against the stored
// documents.
type CompareAttributes struct {
	Text  string `json:"text"`
	Limit *int   `json:"limit,omitempty"`
}

// CompareData is the data object of a compare request.
type CompareData struct {
	Type       string            `json:"type"`
	Attributes CompareAttributes `json:"attributes"`
}

// CompareRequest is the body of POST /compare.
type CompareRequest struct {
	Data CompareData `json:"data"`
}
