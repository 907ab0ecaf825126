// Package jsonapi provides JSON:API specification compliant types for API
// responses.
package jsonapi

// Document represents a JSON:API top-level document.
// See: https://jsonapi.org/format/#document-structure
type Document struct {
	Data   any     `json:"data"`
	Meta   *Meta   `json:"meta,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Meta holds non-standard meta-information about a document.
type Meta map[string]any

// Resource represents a JSON:API resource object.
type Resource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes any    `json:"attributes"`
	Meta       *Meta  `json:"meta,omitempty"`
}

// Error represents a JSON:API error object.
type Error struct {
	Status string `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NewResource creates a new resource with the given type, id and
// attributes.
func NewResource(resourceType, id string, attrs any) *Resource {
	return &Resource{
		Type:       resourceType,
		ID:         id,
		Attributes: attrs,
	}
}

// NewSingleResponse creates a JSON:API document with a single resource.
func NewSingleResponse(resource *Resource) *Document {
	return &Document{
		Data: resource,
	}
}

// NewListResponse creates a JSON:API document with a list of resources.
func NewListResponse(resources []*Resource) *Document {
	return &Document{
		Data: resources,
	}
}

// NewMetaResponse creates a JSON:API document with only meta information.
func NewMetaResponse(meta Meta) *Document {
	return &Document{
		Data: nil,
		Meta: &meta,
	}
}

// NewErrorResponse creates a JSON:API document with errors.
func NewErrorResponse(errors ...Error) *Document {
	return &Document{
		Errors: errors,
	}
}

// NewError creates a simple error with status, title and detail.
func NewError(status, title, detail string) Error {
	return Error{
		Status: status,
		Title:  title,
		Detail: detail,
	}
}
