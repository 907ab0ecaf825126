package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/helixml/parastore/application/service"
	apimiddleware "github.com/helixml/parastore/infrastructure/api/middleware"
	v1 "github.com/helixml/parastore/infrastructure/api/v1"
	mcpinternal "github.com/helixml/parastore/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// APIServer provides an HTTP API backed by a DocumentStore.
type APIServer struct {
	store        *service.DocumentStore
	apiKeys      []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given store.
// apiKeys configures write-protection: mutating endpoints (POST, DELETE)
// on /api/v1/documents require a valid X-API-KEY. Read-only endpoints,
// search, compare, and MCP remain open.
func NewAPIServer(store *service.DocumentStore, apiKeys []string, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		store:   store,
		apiKeys: apiKeys,
		logger:  logger,
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all v1 API routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

// mountRoutes wires up all v1 API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	documentsRouter := v1.NewDocumentsRouter(a.store, a.logger)
	searchRouter := v1.NewSearchRouter(a.store, a.logger)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-KEY"},
		MaxAge:         300,
	}))
	router.Use(apimiddleware.Logging(a.logger))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Open routes. Search and compare are read-only POSTs.
		r.Mount("/search", searchRouter.Routes())
		r.Mount("/compare", searchRouter.CompareRoutes())

		// Write-protected routes. Mutating methods require a valid API key.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtect(apimiddleware.NewAuthConfigWithKeys(a.apiKeys)))
			r.Mount("/documents", documentsRouter.Routes())
		})
	})

	// MCP (Model Context Protocol) endpoint. No timeout middleware: MCP
	// uses streaming responses and manages its own session state via
	// response headers, which is incompatible with chi's Timeout
	// middleware that wraps the ResponseWriter.
	mcpSrv := mcpinternal.NewServer(a.store, a.logger)
	httpHandler := server.NewStreamableHTTPServer(mcpSrv.MCPServer())
	router.Mount("/mcp", httpHandler)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
