package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field names map to
// environment variables; nested structs use underscore delimiters (e.g.
// EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.parastore
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/parastore.db
	DBURL string `envconfig:"DB_URL"`

	// Collection is the name documents are stored under.
	// Env: COLLECTION (default: text_paragraphs)
	Collection string `envconfig:"COLLECTION" default:"text_paragraphs"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// EmbeddingEndpoint configures a remote embedding service. When the
	// model is unset a local ONNX model is used instead.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// ModelDir is the directory local embedding models are stored in.
	// Env: MODEL_DIR
	// Default: {data_dir}/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// HTTPCacheDir is the directory for caching HTTP responses to disk.
	// When set, POST request/response pairs are cached to avoid repeated
	// embedding API calls.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// SearchLimit is the default number of search results.
	// Env: SEARCH_LIMIT (default: 5)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"5"`
}

// EndpointEnv holds environment configuration for an embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g. text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// NumParallelTasks is the number of parallel embedding requests.
	// Env: *_NUM_PARALLEL_TASKS (default: 1)
	NumParallelTasks int `envconfig:"NUM_PARALLEL_TASKS" default:"1"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// BatchSize is the maximum texts per embedding request.
	// Env: *_BATCH_SIZE (default: 64)
	BatchSize int `envconfig:"BATCH_SIZE" default:"64"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix. For
// example, prefix "PARASTORE" requires PARASTORE_DATA_DIR instead of
// DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.Collection != "" {
		cfg = cfg.Apply(WithCollection(e.Collection))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = cfg.Apply(WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = cfg.Apply(WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}
	if e.ModelDir != "" {
		cfg = cfg.Apply(WithModelDir(e.ModelDir))
	}
	if e.HTTPCacheDir != "" {
		cfg = cfg.Apply(WithHTTPCacheDir(e.HTTPCacheDir))
	}
	if e.SearchLimit > 0 {
		cfg = cfg.Apply(WithSearchLimit(e.SearchLimit))
	}

	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithNumParallelTasks(e.NumParallelTasks),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
		WithBatchSize(e.BatchSize),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
