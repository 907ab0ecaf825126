package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/helixml/parastore/domain/document"
	"github.com/helixml/parastore/infrastructure/api/jsonapi"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a domain error to an HTTP status and writes a JSON:API
// error document.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	doc := jsonapi.NewErrorResponse(jsonapi.NewError(
		strconv.Itoa(status),
		http.StatusText(status),
		err.Error(),
	))
	WriteJSON(w, status, doc)
}

// statusFor classifies domain errors into HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrDimensionMismatch):
		return http.StatusConflict
	case errors.Is(err, document.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
