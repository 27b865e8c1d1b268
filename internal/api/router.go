// Package api exposes the HTTP surface: search-event ingestion, the stats
// snapshot, the on-demand recompute trigger, and operational endpoints.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peopledeck/peopledeck/internal/service"
)

// NewRouter wires the routes and middleware.
func NewRouter(searchLog *service.SearchLog, stats *service.Stats, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{searchLog: searchLog, stats: stats, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Post("/api/log_search", h.handleLogSearch)
	r.Get("/api/stats", h.handleStats)
	r.Get("/api/recompute", h.handleRecompute)
	r.Post("/api/recompute", h.handleRecompute)
	r.Get("/healthz", handleHealth)

	return r
}
