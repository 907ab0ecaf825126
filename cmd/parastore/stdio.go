package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/helixml/parastore"
	"github.com/helixml/parastore/internal/log"
	"github.com/helixml/parastore/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This allows AI assistants to store and search paragraphs directly.
Configuration is loaded from environment variables and .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Stdout carries the protocol, so logs go to stderr.
	logger := log.NewWithWriter(os.Stderr, cfg.LogLevel(), log.ParseFormat(string(cfg.LogFormat())))
	slog.SetDefault(logger)

	logger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	opts := clientOptions(cfg)
	opts = append(opts, parastore.WithLogger(logger))

	client, err := parastore.New(opts...)
	if err != nil {
		return fmt.Errorf("create parastore client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close parastore client", slog.Any("error", err))
		}
	}()

	mcpServer := mcp.NewServer(client.Store, logger)

	return mcpServer.ServeStdio()
}
