package handlers

import (
	"encoding/json"
	"net/http"

	"go-calculator/internal/observability"

	"go.uber.org/zap"
)

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.LoggerWithTrace(r.Context()).Warn("writing response body failed", zap.Error(err))
	}
}

// WriteError writes a standardised JSON error response.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, map[string]string{"error": msg})
}

// NotFound answers unknown routes with the JSON error shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, "not found: "+r.URL.Path)
}
