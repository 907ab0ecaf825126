package parastore

import (
	"io"
	"log/slog"

	"github.com/helixml/parastore/infrastructure/provider"
	"github.com/helixml/parastore/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database             databaseType
	dbPath               string
	dbDSN                string
	dataDir              string
	modelDir             string
	httpCacheDir         string
	collection           string
	searchLimit          int
	embeddingProvider    provider.Embedder
	openaiConfig         *provider.OpenAIConfig
	embeddingParallelism int
	logger               *slog.Logger
	apiKeys              []string
	closers              []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
// This ensures all defaults come from the single source of truth.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:              config.DefaultDataDir(),
		collection:           config.DefaultCollection,
		searchLimit:          config.DefaultSearchLimit,
		embeddingParallelism: config.DefaultEndpointParallelTasks,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database. Embeddings are stored in a
// JSON column and similarity is computed in process.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL with the pgvector extension.
// Similarity is computed by the database using the cosine distance operator.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithOpenAI sets an OpenAI-compatible API as the embedding provider.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.openaiConfig = &provider.OpenAIConfig{APIKey: apiKey}
	}
}

// WithOpenAIConfig sets an OpenAI-compatible embedding provider with custom
// configuration. Use the BaseURL field to point at self-hosted services.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.openaiConfig = &cfg
	}
}

// WithEmbeddingProvider sets a custom embedding provider. HTTP cache and
// endpoint settings do not apply to custom providers.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithEmbeddingParallelism sets how many embedding batches are dispatched
// concurrently. Defaults to 1. Values <= 0 are ignored.
func WithEmbeddingParallelism(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.embeddingParallelism = n
		}
	}
}

// WithCollection sets the collection name documents are stored under.
// Each collection has its own table and embedding dimension.
func WithCollection(name string) Option {
	return func(c *clientConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// WithSearchLimit sets the default number of search results returned when
// the caller does not specify one. Values <= 0 are ignored.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithDataDir sets the data directory for database and model storage.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithModelDir sets the directory where built-in model files are stored.
// Defaults to {dataDir}/models if not specified.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithHTTPCache enables on-disk caching of embedding API responses in the
// given directory. Applies to providers built from WithOpenAI and
// WithOpenAIConfig.
func WithHTTPCache(dir string) Option {
	return func(c *clientConfig) {
		c.httpCacheDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
