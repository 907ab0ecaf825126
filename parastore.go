// Package parastore provides an embedding-backed document store: text
// paragraphs are embedded once on insert, persisted alongside their vectors,
// and retrieved by cosine nearest-neighbor search.
//
// Basic usage:
//
//	client, err := parastore.New(
//	    parastore.WithSQLite(".parastore/data.db"),
//	    parastore.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Store a paragraph
//	doc, err := client.Store.Add(ctx, "cats are mammals", nil)
//
//	// Find the closest stored paragraphs
//	matches, err := client.Store.Search(ctx, "tell me about cats", 3)
//	for _, m := range matches {
//	    fmt.Println(m.Document().Text(), m.Distance())
//	}
package parastore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/helixml/parastore/application/service"
	"github.com/helixml/parastore/infrastructure/index"
	"github.com/helixml/parastore/infrastructure/provider"
	"github.com/helixml/parastore/internal/config"
	"github.com/helixml/parastore/internal/database"
)

// Client is the main entry point for the parastore library.
//
// Access the store via the Store field:
//
//	client.Store.Add(ctx, text, metadata)
//	client.Store.Search(ctx, query, k)
type Client struct {
	// Store provides the document operations.
	Store *service.DocumentStore

	db             database.Database
	hugotEmbedding *provider.HugotEmbedder
	closers        []io.Closer

	logger     *slog.Logger
	dataDir    string
	collection string
	apiKeys    []string
	closed     atomic.Bool
	mu         sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	embedder, hugotEmbedding, err := buildEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("embedding provider ready", slog.Bool("accelerated", embedder.Accelerated()))

	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	idx := index.New(db, cfg.collection, logger)

	store := service.NewDocumentStore(idx, embedder,
		service.WithLogger(logger),
		service.WithDefaultLimit(cfg.searchLimit),
	)

	client := &Client{
		Store:          store,
		db:             db,
		hugotEmbedding: hugotEmbedding,
		closers:        cfg.closers,
		logger:         logger,
		dataDir:        cfg.dataDir,
		collection:     cfg.collection,
		apiKeys:        cfg.apiKeys,
	}

	return client, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Close built-in embedding provider
	if c.hugotEmbedding != nil {
		if err := c.hugotEmbedding.Close(); err != nil {
			c.logger.Error("failed to close hugot embedding", slog.Any("error", err))
		}
	}

	// Close registered resources
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("parastore client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Collection returns the collection name the client stores documents under.
func (c *Client) Collection() string {
	return c.collection
}

// APIKeys returns the API keys configured for HTTP write-protection.
func (c *Client) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// buildEmbedder assembles the embedding provider from config. The returned
// HugotEmbedder is non-nil only when the built-in local model is used; it
// needs an explicit Close to release the ONNX session.
func buildEmbedder(cfg *clientConfig, logger *slog.Logger) (provider.Embedder, *provider.HugotEmbedder, error) {
	if cfg.embeddingProvider != nil {
		return provider.NewBatchingEmbedder(cfg.embeddingProvider, cfg.embeddingParallelism), nil, nil
	}

	if cfg.openaiConfig != nil {
		openaiCfg := *cfg.openaiConfig
		if cfg.httpCacheDir != "" && openaiCfg.Transport == nil {
			openaiCfg.Transport = provider.NewCachingTransport(cfg.httpCacheDir, nil)
			logger.Info("embedding HTTP cache enabled", slog.String("dir", cfg.httpCacheDir))
		}
		embedder := provider.NewOpenAIEmbedder(openaiCfg)
		return provider.NewBatchingEmbedder(embedder, cfg.embeddingParallelism), nil, nil
	}

	// Fall back to the built-in local model.
	modelDir := cfg.modelDir
	if modelDir == "" {
		modelDir = filepath.Join(cfg.dataDir, "models")
	}
	hugotEmbedding := provider.NewHugotEmbedder(modelDir)
	if !hugotEmbedding.Available() {
		return nil, nil, fmt.Errorf("%w: no model found in %s, download one or configure an embedding endpoint", ErrNoEmbeddingModel, modelDir)
	}
	logger.Info("built-in embedding provider enabled", slog.String("model_dir", modelDir))
	return provider.NewBatchingEmbedder(hugotEmbedding, cfg.embeddingParallelism), hugotEmbedding, nil
}

// buildDatabaseURL resolves the database connection URL from config.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		path := cfg.dbPath
		if path == "" {
			path = filepath.Join(cfg.dataDir, "parastore.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create database directory: %w", err)
			}
		}
		return "sqlite:///" + path, nil
	case databasePostgres:
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}
