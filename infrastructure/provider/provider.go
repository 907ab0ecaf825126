// Package provider implements text embedding providers: a local ONNX
// model via hugot and the OpenAI embeddings API.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedOperation indicates the provider does not support the
// requested operation.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Embedder converts texts into embedding vectors.
type Embedder interface {
	// Embed generates one embedding per input text, in input order.
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)

	// Capacity returns the maximum number of texts per Embed call.
	// Zero means unlimited.
	Capacity() int

	// Accelerated reports whether embeddings run on an accelerated
	// runtime. Resolved once at construction.
	Accelerated() bool

	// Close releases any resources held by the provider.
	Close() error
}

// EmbeddingRequest is a request to embed a batch of texts.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates an embedding request. The input is copied.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	cp := make([]string, len(texts))
	copy(cp, texts)
	return EmbeddingRequest{texts: cp}
}

// Texts returns the texts to embed.
func (r EmbeddingRequest) Texts() []string {
	cp := make([]string, len(r.texts))
	copy(cp, r.texts)
	return cp
}

// EmbeddingResponse holds the embedding vectors for a request, in the
// same order as the request texts.
type EmbeddingResponse struct {
	embeddings [][]float64
	usage      Usage
}

// NewEmbeddingResponse creates an embedding response.
func NewEmbeddingResponse(embeddings [][]float64, usage Usage) EmbeddingResponse {
	return EmbeddingResponse{embeddings: embeddings, usage: usage}
}

// Embeddings returns the embedding vectors.
func (r EmbeddingResponse) Embeddings() [][]float64 {
	return r.embeddings
}

// Usage returns the token usage for the request.
func (r EmbeddingResponse) Usage() Usage {
	return r.usage
}

// Usage holds token accounting for a provider call. Local providers
// report zero usage.
type Usage struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// NewUsage creates a Usage.
func NewUsage(prompt, completion, total int) Usage {
	return Usage{
		promptTokens:     prompt,
		completionTokens: completion,
		totalTokens:      total,
	}
}

// PromptTokens returns the prompt token count.
func (u Usage) PromptTokens() int { return u.promptTokens }

// CompletionTokens returns the completion token count.
func (u Usage) CompletionTokens() int { return u.completionTokens }

// TotalTokens returns the total token count.
func (u Usage) TotalTokens() int { return u.totalTokens }

// Add returns the sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		promptTokens:     u.promptTokens + other.promptTokens,
		completionTokens: u.completionTokens + other.completionTokens,
		totalTokens:      u.totalTokens + other.totalTokens,
	}
}

// ProviderError describes a failed provider operation.
type ProviderError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
