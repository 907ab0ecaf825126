package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBatchSize is the default number of texts per embedding
// API call.
const DefaultOpenAIBatchSize = 64

// errEmbeddingCountMismatch indicates the API returned fewer embedding
// vectors than requested. This is retryable because transient upstream
// issues (e.g. rate-limiting behind a 200 status) can produce partial
// responses.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates the API returned HTTP 200 but the
// response body contained an error instead of embedding data. This happens
// with routing providers like OpenRouter when all upstream providers fail.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API,
// or any API-compatible service reachable via a custom base URL.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         string
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIConfig holds configuration for the OpenAI embedder.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	BatchSize     int
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64

	// Transport overrides the HTTP transport, e.g. to add on-disk
	// response caching.
	Transport http.RoundTripper
}

// NewOpenAIEmbedder creates an embedder from configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	config := openai.DefaultConfig(cfg.APIKey)

	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	if cfg.Timeout > 0 || cfg.Transport != nil {
		config.HTTPClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		}
	}

	client := openai.NewClientWithConfig(config)

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultOpenAIBatchSize
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}

	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}

	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = 2.0
	}

	return &OpenAIEmbedder{
		client:        client,
		model:         model,
		batchSize:     batchSize,
		maxRetries:    maxRetries,
		initialDelay:  initialDelay,
		backoffFactor: backoffFactor,
	}
}

// Capacity returns the maximum number of texts per Embed call.
func (p *OpenAIEmbedder) Capacity() int { return p.batchSize }

// Accelerated returns false: inference happens remotely, there is no
// local accelerator to report on.
func (p *OpenAIEmbedder) Accelerated() bool { return false }

// Close is a no-op for the OpenAI embedder.
func (p *OpenAIEmbedder) Close() error {
	return nil
}

// Embed generates embeddings for the given texts in a single API call.
func (p *OpenAIEmbedder) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}

	openaiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error

	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return err
		}
		// Routing providers (e.g. OpenRouter) can return HTTP 200 with an
		// error body that go-openai silently parses as an empty response.
		// Zero data with zero usage and no model means the upstream is
		// down, not transiently overloaded.
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf(
				"%w: provider returned HTTP 200 with no embedding data, no model, and zero usage",
				errUpstreamProviderFailure,
			)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})

	if err != nil {
		return EmbeddingResponse{}, p.wrapError("embedding", err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			embeddings[i][j] = float64(v)
		}
	}

	usage := NewUsage(resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	return NewEmbeddingResponse(embeddings, usage), nil
}

// withRetry executes the function with exponential backoff retry.
func (p *OpenAIEmbedder) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func (p *OpenAIEmbedder) isRetryable(err error) bool {
	// Partial embedding responses are retryable. Upstream providers can
	// return 200 with missing data under transient load.
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Network errors are retryable
		return true
	}

	return false
}

// wrapError wraps an OpenAI error into a ProviderError.
func (p *OpenAIEmbedder) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var _ Embedder = (*OpenAIEmbedder)(nil)
