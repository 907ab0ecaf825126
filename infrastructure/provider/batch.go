package provider

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchingEmbedder wraps an Embedder and splits large requests into
// chunks of the inner embedder's capacity, running up to parallelism
// chunks concurrently. Results are returned in input order. Any chunk
// failure fails the whole request.
type BatchingEmbedder struct {
	inner       Embedder
	parallelism int
}

// NewBatchingEmbedder wraps inner. A parallelism below 1 is treated as 1.
func NewBatchingEmbedder(inner Embedder, parallelism int) *BatchingEmbedder {
	if parallelism < 1 {
		parallelism = 1
	}
	return &BatchingEmbedder{inner: inner, parallelism: parallelism}
}

// Capacity returns zero: the wrapper accepts requests of any size.
func (b *BatchingEmbedder) Capacity() int { return 0 }

// Accelerated reports the inner embedder's capability.
func (b *BatchingEmbedder) Accelerated() bool { return b.inner.Accelerated() }

// Close closes the inner embedder.
func (b *BatchingEmbedder) Close() error {
	return b.inner.Close()
}

// Embed splits the request into capacity-sized chunks and embeds them
// concurrently, preserving input order.
func (b *BatchingEmbedder) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}

	chunkSize := b.inner.Capacity()
	if chunkSize <= 0 || chunkSize >= len(texts) {
		return b.inner.Embed(ctx, req)
	}

	type chunk struct {
		start int
		texts []string
	}

	var chunks []chunk
	for start := 0; start < len(texts); start += chunkSize {
		end := start + chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		chunks = append(chunks, chunk{start: start, texts: texts[start:end]})
	}

	embeddings := make([][]float64, len(texts))
	usages := make([]Usage, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)

	for i, c := range chunks {
		g.Go(func() error {
			resp, err := b.inner.Embed(gctx, NewEmbeddingRequest(c.texts))
			if err != nil {
				return fmt.Errorf("embed chunk at offset %d: %w", c.start, err)
			}
			vectors := resp.Embeddings()
			if len(vectors) != len(c.texts) {
				return fmt.Errorf("embed chunk at offset %d: got %d vectors for %d texts", c.start, len(vectors), len(c.texts))
			}
			copy(embeddings[c.start:], vectors)
			usages[i] = resp.Usage()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return EmbeddingResponse{}, err
	}

	total := NewUsage(0, 0, 0)
	for _, u := range usages {
		total = total.Add(u)
	}

	return NewEmbeddingResponse(embeddings, total), nil
}

var _ Embedder = (*BatchingEmbedder)(nil)
