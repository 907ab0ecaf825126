// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/helixml/parastore/domain/document"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Store provides the document operations exposed as MCP tools.
type Store interface {
	Add(ctx context.Context, text string, metadata document.Metadata) (document.Document, error)
	Search(ctx context.Context, query string, k int) ([]document.Match, error)
	Get(ctx context.Context, id string) (document.Document, error)
	Count(ctx context.Context) (int64, error)
	DefaultLimit() int
}

// Server wraps the MCP server with parastore-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	store     Store
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  store,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"parastore",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all parastore tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_paragraphs",
		mcp.WithDescription("Find stored paragraphs semantically similar to a query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The text to search for"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of results to return (defaults to the server's configured limit)"),
		),
	)

	mcpServer.AddTool(searchTool, s.handleSearch)

	addTool := mcp.NewTool("add_paragraph",
		mcp.WithDescription("Store a paragraph of text for later similarity search"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The paragraph to store"),
		),
		mcp.WithString("metadata",
			mcp.Description("Optional JSON object with scalar metadata values"),
		),
	)

	mcpServer.AddTool(addTool, s.handleAdd)

	getTool := mcp.NewTool("get_paragraph",
		mcp.WithDescription("Get a stored paragraph by its ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The paragraph ID returned when it was stored"),
		),
	)

	mcpServer.AddTool(getTool, s.handleGet)

	countTool := mcp.NewTool("count_paragraphs",
		mcp.WithDescription("Count the stored paragraphs"),
	)

	mcpServer.AddTool(countTool, s.handleCount)
}

// handleSearch handles the search_paragraphs tool invocation.
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	topK := request.GetInt("top_k", s.store.DefaultLimit())

	matches, err := s.store.Search(ctx, query, topK)
	if err != nil {
		s.logger.Error("search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	type searchResult struct {
		ID         string         `json:"id"`
		Text       string         `json:"text"`
		Metadata   map[string]any `json:"metadata,omitempty"`
		Distance   float64        `json:"distance"`
		Similarity float64        `json:"similarity"`
	}

	results := make([]searchResult, len(matches))
	for i, m := range matches {
		doc := m.Document()
		results[i] = searchResult{
			ID:         doc.ID(),
			Text:       doc.Text(),
			Metadata:   doc.Metadata(),
			Distance:   m.Distance(),
			Similarity: m.Similarity(),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleAdd handles the add_paragraph tool invocation.
func (s *Server) handleAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}

	var metadata document.Metadata
	if raw := request.GetString("metadata", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid metadata: %v", err)), nil
		}
	}

	doc, err := s.store.Add(ctx, text, metadata)
	if err != nil {
		s.logger.Error("add failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("add failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(`{"id":%q}`, doc.ID())), nil
}

// handleGet handles the get_paragraph tool invocation.
func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Error("failed to get paragraph", slog.String("id", id), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get paragraph: %v", err)), nil
	}

	type paragraphResult struct {
		ID       string         `json:"id"`
		Text     string         `json:"text"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}

	jsonBytes, err := json.Marshal(paragraphResult{
		ID:       doc.ID(),
		Text:     doc.Text(),
		Metadata: doc.Metadata(),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleCount handles the count_paragraphs tool invocation.
func (s *Server) handleCount(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Error("count failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(`{"count":%d}`, count)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
