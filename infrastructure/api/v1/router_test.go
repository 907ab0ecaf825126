package v1_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/helixml/parastore/application/service"
	"github.com/helixml/parastore/infrastructure/index"
	"github.com/helixml/parastore/infrastructure/provider"
	"github.com/helixml/parastore/internal/testdb"
)

// cannedEmbedder returns fixed 2-dimensional vectors for known texts and a
// neutral vector for everything else.
type cannedEmbedder struct{}

var cannedVectors = map[string][]float64{
	"cats are mammals":           {1, 0},
	"feline animals":             {0.9, 0.1},
	"the stock market fell":      {0, 1},
	"tell me about cats":         {0.95, 0.05},
	"completely unrelated topic": {-0.5, 0.5},
}

func (cannedEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	texts := req.Texts()
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		if text == "poison" {
			return provider.EmbeddingResponse{}, fmt.Errorf("upstream rejected text")
		}
		if v, ok := cannedVectors[text]; ok {
			embeddings[i] = v
			continue
		}
		embeddings[i] = []float64{0.5, 0.5}
	}
	return provider.NewEmbeddingResponse(embeddings, provider.Usage{}), nil
}

func (cannedEmbedder) Capacity() int { return 0 }

func (cannedEmbedder) Accelerated() bool { return false }

func (cannedEmbedder) Close() error { return nil }

// newTestStore builds a DocumentStore over an in-memory SQLite index.
func newTestStore(t *testing.T) *service.DocumentStore {
	t.Helper()
	db := testdb.New(t)
	idx := index.New(db, "test_paragraphs", nil)
	return service.NewDocumentStore(idx, cannedEmbedder{})
}
