package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/parastore/application/service"
	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/infrastructure/api/jsonapi"
	"github.com/helixml/parastore/infrastructure/api/middleware"
	"github.com/helixml/parastore/infrastructure/api/v1/dto"
)

// SearchRouter handles similarity search and comparison endpoints.
type SearchRouter struct {
	store  *service.DocumentStore
	logger *slog.Logger
}

// NewSearchRouter creates a SearchRouter.
func NewSearchRouter(store *service.DocumentStore, logger *slog.Logger) *SearchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchRouter{store: store, logger: logger}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// CompareRoutes returns the chi router for the compare endpoint.
func (r *SearchRouter) CompareRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Compare)

	return router
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %s", document.ErrInvalidArgument, err), r.logger)
		return
	}

	matches, err := r.store.Search(req.Context(), body.Data.Attributes.Query, r.resolveLimit(body.Data.Attributes.Limit))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	r.writeMatches(w, matches)
}

// Compare handles POST /api/v1/compare. Same semantics as Search; the
// candidate text is ranked against the stored documents without being
// stored itself.
func (r *SearchRouter) Compare(w http.ResponseWriter, req *http.Request) {
	var body dto.CompareRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %s", document.ErrInvalidArgument, err), r.logger)
		return
	}

	matches, err := r.store.Compare(req.Context(), body.Data.Attributes.Text, r.resolveLimit(body.Data.Attributes.Limit))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	r.writeMatches(w, matches)
}

// resolveLimit substitutes the store's default when the request omits a
// limit. An explicit value passes through, including invalid ones, so
// the store can reject them.
func (r *SearchRouter) resolveLimit(limit *int) int {
	if limit == nil {
		return r.store.DefaultLimit()
	}
	return *limit
}

func (r *SearchRouter) writeMatches(w http.ResponseWriter, matches []document.Match) {
	resources := make([]*jsonapi.Resource, len(matches))
	for i, m := range matches {
		doc := m.Document()
		resources[i] = jsonapi.NewResource("match", doc.ID(), dto.MatchAttributes{
			Text:       doc.Text(),
			Metadata:   doc.Metadata(),
			Distance:   m.Distance(),
			Similarity: m.Similarity(),
		})
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(resources))
}
