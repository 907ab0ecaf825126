// Package main is the entry point for the parastore CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/helixml/parastore/internal/config"
	"github.com/helixml/parastore/internal/log"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parastore",
		Short: "Parastore semantic paragraph store",
		Long:  `Parastore stores text paragraphs with their embeddings and retrieves them by cosine similarity search.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(versionCmd())
	cmd.AddCommand(addCmd())
	cmd.AddCommand(batchCmd())
	cmd.AddCommand(searchCmd())
	cmd.AddCommand(compareCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(getCmd())
	cmd.AddCommand(deleteCmd())
	cmd.AddCommand(countCmd())
	cmd.AddCommand(resetCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from config and installs it as the
// slog default so GORM tracing shares the same sink.
func newLogger(cfg config.AppConfig) *slog.Logger {
	return log.Configure(cfg.LogLevel(), log.ParseFormat(string(cfg.LogFormat())))
}
