// Package v1 implements the version 1 HTTP API.
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

// DocumentsRouter handles document CRUD endpoints.
type DocumentsRouter struct {
	store  *service.DocumentStore
	logger *slog.Logger
}

// NewDocumentsRouter creates a DocumentsRouter.
func NewDocumentsRouter(store *service.DocumentStore, logger *slog.Logger) *DocumentsRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentsRouter{store: store, logger: logger}
}

// Routes returns the chi router for document endpoints.
func (r *DocumentsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Add)
	router.Post("/batch", r.AddBatch)
	router.Get("/", r.List)
	router.Delete("/", r.Reset)
	router.Get("/count", r.Count)
	router.Get("/{id}", r.Get)
	router.Delete("/{id}", r.Delete)

	return router
}

// Add handles POST /api/v1/documents.
func (r *DocumentsRouter) Add(w http.ResponseWriter, req *http.Request) {
	var body dto.AddDocumentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %s", document.ErrInvalidArgument, err), r.logger)
		return
	}

	doc, err := r.store.Add(req.Context(), body.Data.Attributes.Text, document.Metadata(body.Data.Attributes.Metadata))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(documentResource(doc)))
}

// AddBatch handles POST /api/v1/documents/batch.
func (r *DocumentsRouter) AddBatch(w http.ResponseWriter, req *http.Request) {
	var body dto.AddBatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %s", document.ErrInvalidArgument, err), r.logger)
		return
	}

	texts := make([]string, len(body.Data))
	metadatas := make([]document.Metadata, len(body.Data))
	for i, d := range body.Data {
		texts[i] = d.Attributes.Text
		metadatas[i] = document.Metadata(d.Attributes.Metadata)
	}

	docs, err := r.store.AddBatch(req.Context(), texts, metadatas)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(docs))
	for i, doc := range docs {
		resources[i] = documentResource(doc)
	}
	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewListResponse(resources))
}

// List handles GET /api/v1/documents.
func (r *DocumentsRouter) List(w http.ResponseWriter, req *http.Request) {
	docs, err := r.store.GetAll(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(docs))
	for i, doc := range docs {
		resources[i] = documentResource(doc)
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewListResponse(resources))
}

// Get handles GET /api/v1/documents/{id}.
func (r *DocumentsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	doc, err := r.store.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(documentResource(doc)))
}

// Delete handles DELETE /api/v1/documents/{id}.
func (r *DocumentsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	if err := r.store.Delete(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Count handles GET /api/v1/documents/count.
func (r *DocumentsRouter) Count(w http.ResponseWriter, req *http.Request) {
	count, err := r.store.Count(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewMetaResponse(jsonapi.Meta{"count": count}))
}

// Reset handles DELETE /api/v1/documents: remove every document while
// keeping the collection configuration.
func (r *DocumentsRouter) Reset(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Reset(req.Context()); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func documentResource(doc document.Document) *jsonapi.Resource {
	return jsonapi.NewResource("document", doc.ID(), dto.DocumentAttributes{
		Text:     doc.Text(),
		Metadata: doc.Metadata(),
	})
}
