package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"go-calculator/internal/handlers"
	"go-calculator/internal/observability"
)

// NewRouter serves /health and the metrics held by gatherer on /metrics.
func NewRouter(gatherer prometheus.Gatherer) http.Handler {
	started := time.Now()

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.NotFound(handlers.NotFound)

	r.Get("/health", handlers.Health(started))

	r.Handle("/metrics", observability.PrometheusHandler(gatherer))

	return r
}
