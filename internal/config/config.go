// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultCollection            = "text_paragraphs"
	DefaultSearchLimit           = 5
	DefaultEndpointParallelTasks = 1
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoff       = 2.0
	DefaultEndpointBatchSize     = 64
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an embedding service endpoint.
type Endpoint struct {
	baseURL          string
	model            string
	apiKey           string
	numParallelTasks int
	timeout          time.Duration
	maxRetries       int
	initialDelay     time.Duration
	backoffFactor    float64
	batchSize        int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		numParallelTasks: DefaultEndpointParallelTasks,
		timeout:          DefaultEndpointTimeout,
		maxRetries:       DefaultEndpointMaxRetries,
		initialDelay:     DefaultEndpointInitialDelay,
		backoffFactor:    DefaultEndpointBackoff,
		batchSize:        DefaultEndpointBatchSize,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// NumParallelTasks returns the number of parallel embedding requests.
func (e Endpoint) NumParallelTasks() int { return e.numParallelTasks }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// BatchSize returns the maximum texts per embedding request.
func (e Endpoint) BatchSize() int { return e.batchSize }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithNumParallelTasks sets the parallel request count.
func WithNumParallelTasks(n int) EndpointOption {
	return func(e *Endpoint) { e.numParallelTasks = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithBatchSize sets the maximum texts per embedding request.
func WithBatchSize(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	collection        string
	logLevel          string
	logFormat         LogFormat
	embeddingEndpoint *Endpoint
	modelDir          string
	httpCacheDir      string
	searchLimit       int
	apiKeys           []string
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parastore"
	}
	return filepath.Join(home, ".parastore")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:        DefaultHost,
		port:        DefaultPort,
		dataDir:     dataDir,
		dbURL:       "sqlite:///" + filepath.Join(dataDir, "parastore.db"),
		collection:  DefaultCollection,
		logLevel:    DefaultLogLevel,
		logFormat:   LogFormatPretty,
		searchLimit: DefaultSearchLimit,
		apiKeys:     []string{},
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// Collection returns the collection name documents are stored under.
func (c AppConfig) Collection() string { return c.collection }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EmbeddingEndpoint returns the embedding endpoint config, or nil when a
// local model is used instead.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// ModelDir returns the directory local embedding models are downloaded to.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return filepath.Join(c.dataDir, "models")
}

// HTTPCacheDir returns the directory for on-disk HTTP response caching.
// Empty means caching is disabled.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// SearchLimit returns the default number of search results.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// EnsureModelDir creates the model directory if it doesn't exist.
func (c AppConfig) EnsureModelDir() error {
	if err := os.MkdirAll(c.ModelDir(), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Keep the default DB next to the data directory unless the URL was
		// set explicitly.
		if c.dbURL == "" || strings.Contains(c.dbURL, "parastore.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "parastore.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithCollection sets the collection name.
func WithCollection(name string) AppConfigOption {
	return func(c *AppConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingEndpoint sets the remote embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithHTTPCacheDir sets the HTTP response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithSearchLimit sets the default search result count.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("collection", c.collection),
		slog.String("log_level", c.logLevel),
		slog.String("embedding_base_url", c.endpointBaseURL()),
		slog.String("embedding_model", c.endpointModel()),
		slog.Int("search_limit", c.searchLimit),
		slog.Int("api_keys_count", len(c.apiKeys)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointBaseURL() string {
	if c.embeddingEndpoint == nil {
		return "(local)"
	}
	return c.embeddingEndpoint.BaseURL()
}

func (c AppConfig) endpointModel() string {
	if c.embeddingEndpoint == nil {
		return "(local)"
	}
	return c.embeddingEndpoint.Model()
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
