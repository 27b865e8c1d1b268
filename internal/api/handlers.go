package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/peopledeck/peopledeck/internal/service"
	"github.com/peopledeck/peopledeck/internal/store"
)

type handlers struct {
	searchLog *service.SearchLog
	stats     *service.Stats
	logger    *slog.Logger
}

type logSearchRequest struct {
	Query    *string  `json:"query"`
	Duration *float64 `json:"duration"`
}

func (h *handlers) handleLogSearch(w http.ResponseWriter, r *http.Request) {
	var req logSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == nil || req.Duration == nil {
		writeMessage(w, http.StatusBadRequest,
			"Invalid request body. Expected: { query: string, duration: number }")
		return
	}

	if err := h.searchLog.Record(r.Context(), *req.Query, *req.Duration); err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			writeMessage(w, http.StatusBadRequest,
				"Invalid request body. Expected: { query: string, duration: number }")
			return
		}
		h.logger.Error("search event append failed", slog.Any("error", err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeMessage(w, http.StatusOK, "Logged")
}

func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	// Best-effort access marker; detached from the request lifetime so a
	// slow store never delays the response.
	go h.searchLog.RecordAccess(context.WithoutCancel(r.Context()),
		"api_stats_request", r.Method, remoteAddr(r))

	snapshot, err := h.stats.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "No stats available yet.")
			return
		}
		h.logger.Error("snapshot read failed", slog.Any("error", err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The snapshot is stored as JSON and returned verbatim.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snapshot)
}

func (h *handlers) handleRecompute(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Recompute(r.Context())
	if err != nil {
		h.logger.Error("recompute failed", slog.Any("error", err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if snapshot == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "No logs to compute stats",
			"stats":   nil,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Stats recomputed",
		"stats":   snapshot,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func remoteAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
