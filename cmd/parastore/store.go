package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/helixml/parastore"
	"github.com/helixml/parastore/domain/document"
	"github.com/spf13/cobra"
)

// displayTextLimit caps paragraph text in terminal output. Stored text is
// never truncated.
const displayTextLimit = 80

// withClient loads config, builds a client, runs fn, and closes the client.
func withClient(envFile string, fn func(ctx context.Context, client *parastore.Client) error) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := newLogger(cfg)

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

	return fn(context.Background(), client)
}

func addCmd() *cobra.Command {
	var (
		envFile  string
		metadata string
	)

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Store a paragraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				doc, err := client.Store.Add(ctx, args[0], meta)
				if err != nil {
					return err
				}
				fmt.Println(doc.ID())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&metadata, "metadata", "", `Metadata as a JSON object, e.g. '{"source":"notes"}'`)

	return cmd
}

func batchCmd() *cobra.Command {
	var (
		envFile string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "batch [text]...",
		Short: "Store several paragraphs in one atomic batch",
		Long: `Store several paragraphs in one atomic batch.

Paragraphs are given as arguments, or one per line via --file (use - for
stdin). If any paragraph fails to embed, nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if file != "" {
				fileTexts, err := readLines(file)
				if err != nil {
					return err
				}
				texts = append(texts, fileTexts...)
			}
			if len(texts) == 0 {
				return fmt.Errorf("no paragraphs given")
			}
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				docs, err := client.Store.AddBatch(ctx, texts, nil)
				if err != nil {
					return err
				}
				for _, doc := range docs {
					fmt.Printf("%s  %s\n", doc.ID(), truncate(doc.Text(), displayTextLimit))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&file, "file", "", "File with one paragraph per line (- for stdin)")

	return cmd
}

func searchCmd() *cobra.Command {
	var (
		envFile string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find the stored paragraphs closest to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				if limit <= 0 {
					limit = client.Store.DefaultLimit()
				}
				matches, err := client.Store.Search(ctx, args[0], limit)
				if err != nil {
					return err
				}
				printMatches(matches)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of results (default: configured search limit)")

	return cmd
}

func compareCmd() *cobra.Command {
	var (
		envFile string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "compare [text]",
		Short: "Rank the stored paragraphs against a new text without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				if limit <= 0 {
					limit = client.Store.DefaultLimit()
				}
				matches, err := client.Store.Compare(ctx, args[0], limit)
				if err != nil {
					return err
				}
				printMatches(matches)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of results (default: configured search limit)")

	return cmd
}

func listCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all stored paragraphs in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				docs, err := client.Store.GetAll(ctx)
				if err != nil {
					return err
				}
				for _, doc := range docs {
					fmt.Printf("%s  %s\n", doc.ID(), truncate(doc.Text(), displayTextLimit))
				}
				fmt.Printf("%d paragraph(s)\n", len(docs))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func getCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Print a stored paragraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				doc, err := client.Store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Println(doc.Text())
				if meta := doc.Metadata(); len(meta) > 0 {
					jsonBytes, err := json.Marshal(meta)
					if err != nil {
						return err
					}
					fmt.Printf("metadata: %s\n", jsonBytes)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func deleteCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored paragraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				if err := client.Store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func countCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the stored paragraphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				count, err := client.Store.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Println(count)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func resetCmd() *cobra.Command {
	var (
		envFile string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored paragraph",
		Long:  `Delete every stored paragraph. The collection configuration, including its embedding dimension, is preserved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete all paragraphs without --force")
			}
			return withClient(envFile, func(ctx context.Context, client *parastore.Client) error {
				return client.Store.Reset(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion of all paragraphs")

	return cmd
}

// printMatches prints ranked search results for the terminal.
func printMatches(matches []document.Match) {
	if len(matches) == 0 {
		fmt.Println("no results")
		return
	}
	for i, m := range matches {
		doc := m.Document()
		fmt.Printf("%d. [similarity %.4f] %s\n", i+1, m.Similarity(), truncate(doc.Text(), displayTextLimit))
		fmt.Printf("   id: %s\n", doc.ID())
	}
}

// parseMetadata parses the --metadata JSON object flag.
func parseMetadata(s string) (document.Metadata, error) {
	if s == "" {
		return nil, nil
	}
	var meta document.Metadata
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}

// readLines reads non-empty lines from a file, or stdin when path is "-".
func readLines(path string) ([]string, error) {
	var reader *bufio.Scanner
	if path == "-" {
		reader = bufio.NewScanner(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		reader = bufio.NewScanner(f)
	}
	reader.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// truncate shortens s to at most n runes for display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
