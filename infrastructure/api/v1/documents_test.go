package v1_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	v1 "github.com/helixml/parastore/infrastructure/api/v1"
	"github.com/helixml/parastore/infrastructure/api/v1/dto"
)

type singleDocumentResponse struct {
	Data struct {
		Type       string                 `json:"type"`
		ID         string                 `json:"id"`
		Attributes dto.DocumentAttributes `json:"attributes"`
	} `json:"data"`
}

type listDocumentsResponse struct {
	Data []struct {
		Type       string                 `json:"type"`
		ID         string                 `json:"id"`
		Attributes dto.DocumentAttributes `json:"attributes"`
	} `json:"data"`
}

func TestDocumentsRouter_AddAndGet(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":{"type":"document","attributes":{"text":"cats are mammals","metadata":{"source":"bio"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var created singleDocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Data.ID == "" {
		t.Fatal("expected a generated document id")
	}
	if created.Data.Attributes.Text != "cats are mammals" {
		t.Errorf("text = %q, want %q", created.Data.Attributes.Text, "cats are mammals")
	}

	req = httptest.NewRequest(http.MethodGet, "/"+created.Data.ID, nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var fetched singleDocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if fetched.Data.Attributes.Metadata["source"] != "bio" {
		t.Errorf("metadata.source = %v, want %q", fetched.Data.Attributes.Metadata["source"], "bio")
	}
}

func TestDocumentsRouter_AddEmptyTextRejected(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":{"type":"document","attributes":{"text":"   "}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDocumentsRouter_MalformedJSONRejected(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"data":`))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDocumentsRouter_EmbeddingFailureIsBadGateway(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":{"type":"document","attributes":{"text":"poison"}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusBadGateway, w.Body.String())
	}
}

func TestDocumentsRouter_BatchListCount(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":[
		{"type":"document","attributes":{"text":"cats are mammals"}},
		{"type":"document","attributes":{"text":"the stock market fell"}}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("batch status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	var list listDocumentsResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("list returned %d documents, want 2", len(list.Data))
	}
	// Insertion order is preserved.
	if list.Data[0].Attributes.Text != "cats are mammals" {
		t.Errorf("first document = %q, want %q", list.Data[0].Attributes.Text, "cats are mammals")
	}

	req = httptest.NewRequest(http.MethodGet, "/count", nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	var count struct {
		Meta struct {
			Count int64 `json:"count"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(w.Body).Decode(&count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if count.Meta.Count != 2 {
		t.Errorf("count = %d, want 2", count.Meta.Count)
	}
}

func TestDocumentsRouter_BatchFailureStoresNothing(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":[
		{"type":"document","attributes":{"text":"cats are mammals"}},
		{"type":"document","attributes":{"text":"poison"}}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("batch status = %d, want %d", w.Code, http.StatusBadGateway)
	}

	req = httptest.NewRequest(http.MethodGet, "/count", nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	var count struct {
		Meta struct {
			Count int64 `json:"count"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(w.Body).Decode(&count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if count.Meta.Count != 0 {
		t.Errorf("count = %d, want 0 after failed batch", count.Meta.Count)
	}
}

func TestDocumentsRouter_DeleteStrict(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":{"type":"document","attributes":{"text":"cats are mammals"}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	var created singleDocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/"+created.Data.ID, nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// Deleting again reports not found.
	req = httptest.NewRequest(http.MethodDelete, "/"+created.Data.ID, nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDocumentsRouter_GetUnknownIsNotFound(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	req := httptest.NewRequest(http.MethodGet, "/no-such-id", nil)
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDocumentsRouter_ResetClearsDocuments(t *testing.T) {
	store := newTestStore(t)
	routes := v1.NewDocumentsRouter(store, nil).Routes()

	body := `{"data":{"type":"document","attributes":{"text":"cats are mammals"}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d, want %d", w.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	var list listDocumentsResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 0 {
		t.Errorf("list returned %d documents after reset, want 0", len(list.Data))
	}
}
