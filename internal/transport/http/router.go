package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smart-factory/bridge/internal/metrics"
)

// NewRouter mounts ingestion on every POST path, since senders are
// configured with a bare host:port. auth may be nil.
func NewRouter(h *Handler, auth *AuthMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.MethodNotAllowed(h.HandleMethodNotAllowed)

	r.Get("/healthz", h.HandleLivez)
	r.Get("/readyz", h.HandleReadyz)
	r.Get("/metrics", metrics.HandleMetrics)

	var ingest http.Handler = http.HandlerFunc(h.HandleIngest)
	if auth != nil {
		ingest = auth.Wrap(ingest)
	}
	r.Method(http.MethodPost, "/*", ingest)

	return r
}
