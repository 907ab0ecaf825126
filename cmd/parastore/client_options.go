package main

import (
	"strings"

	"github.com/helixml/parastore"
	"github.com/helixml/parastore/infrastructure/provider"
	"github.com/helixml/parastore/internal/config"
)

// clientOptions returns the parastore.Option slice derived from the shared
// parts of AppConfig: database storage, collection, and embedding provider.
// Callers append entrypoint-specific options (API keys, logger) before
// passing the full slice to parastore.New.
func clientOptions(cfg config.AppConfig) []parastore.Option {
	opts := []parastore.Option{
		parastore.WithDataDir(cfg.DataDir()),
		parastore.WithCollection(cfg.Collection()),
		parastore.WithSearchLimit(cfg.SearchLimit()),
	}

	opts = append(opts, storageOptions(cfg)...)
	opts = append(opts, embeddingOptions(cfg)...)

	if dir := cfg.HTTPCacheDir(); dir != "" {
		opts = append(opts, parastore.WithHTTPCache(dir))
	}
	if dir := cfg.ModelDir(); dir != "" {
		opts = append(opts, parastore.WithModelDir(dir))
	}

	return opts
}

// storageOptions returns the parastore.Option for the configured database.
func storageOptions(cfg config.AppConfig) []parastore.Option {
	dbURL := cfg.DBURL()

	if dbURL != "" && !isSQLite(dbURL) {
		return []parastore.Option{parastore.WithPostgres(dbURL)}
	}

	dbPath := cfg.DataDir() + "/parastore.db"
	if dbURL != "" && isSQLite(dbURL) {
		dbPath = strings.TrimPrefix(dbURL, "sqlite:///")
		if dbPath == dbURL {
			dbPath = strings.TrimPrefix(dbURL, "sqlite:")
		}
	}

	return []parastore.Option{parastore.WithSQLite(dbPath)}
}

// embeddingOptions returns the parastore.Option for the embedding endpoint
// when one is configured, or an empty slice so the built-in local model is
// used instead.
func embeddingOptions(cfg config.AppConfig) []parastore.Option {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}

	return []parastore.Option{
		parastore.WithOpenAIConfig(provider.OpenAIConfig{
			APIKey:        endpoint.APIKey(),
			BaseURL:       endpoint.BaseURL(),
			Model:         endpoint.Model(),
			Timeout:       endpoint.Timeout(),
			BatchSize:     endpoint.BatchSize(),
			MaxRetries:    endpoint.MaxRetries(),
			InitialDelay:  endpoint.InitialDelay(),
			BackoffFactor: endpoint.BackoffFactor(),
		}),
		parastore.WithEmbeddingParallelism(endpoint.NumParallelTasks()),
	}
}

// isSQLite checks if the database URL is for SQLite.
func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:")
}
