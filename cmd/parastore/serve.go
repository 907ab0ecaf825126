package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixml/parastore"
	"github.com/helixml/parastore/infrastructure/api"
	"github.com/helixml/parastore/internal/config"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.parastore)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/parastore.db)
  COLLECTION                   Collection documents are stored under (default: text_paragraphs)
  SEARCH_LIMIT                 Default number of search results (default: 5)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys
  MODEL_DIR                    Local embedding model directory (default: {data_dir}/models)
  HTTP_CACHE_DIR               On-disk cache for embedding API responses

  EMBEDDING_ENDPOINT_*         Embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    NUM_PARALLEL_TASKS         Concurrent requests (default: 1)
    TIMEOUT                    Request timeout (default: 60s)
    MAX_RETRIES                Retry attempts (default: 5)
    BATCH_SIZE                 Texts per request (default: 64)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := newLogger(cfg)

	opts := clientOptions(cfg)
	opts = append(opts, parastore.WithLogger(logger))
	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, parastore.WithAPIKeys(keys...))
	}

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting parastore", attrs...)

	client, err := parastore.New(opts...)
	if err != nil {
		return fmt.Errorf("create parastore client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close parastore client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client.Store, client.APIKeys(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
