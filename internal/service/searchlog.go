// Package service wires the store-backed operations behind the HTTP surface
// and the scheduled jobs: best-effort search-event logging and the stats
// aggregation runs.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/peopledeck/peopledeck/internal/metrics"
	"github.com/peopledeck/peopledeck/internal/models"
	"github.com/peopledeck/peopledeck/internal/store"
)

const (
	// MaxQueryLength is the longest query accepted and stored.
	MaxQueryLength = 1000
	// MaxDurationMs caps plausible search durations at 30 seconds.
	MaxDurationMs = 30000
)

// ErrInvalidEvent marks a search event rejected at the boundary.
var ErrInvalidEvent = errors.New("invalid search event")

// SearchLog appends completed searches to the shared event stream. Logging
// is best-effort: callers in the search flow swallow failures so a broken
// store never blocks or fails the search itself.
type SearchLog struct {
	store  store.Provider
	logger *slog.Logger
	key    string
	now    func() time.Time
}

// NewSearchLog creates a logger appending to the list at key.
func NewSearchLog(p store.Provider, key string, logger *slog.Logger) *SearchLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchLog{store: p, logger: logger, key: key, now: time.Now}
}

// Record validates, sanitizes and appends one search event. Invalid payloads
// return ErrInvalidEvent; store failures return the underlying error so the
// HTTP handler can distinguish 400 from 500.
func (s *SearchLog) Record(ctx context.Context, query string, durationMs float64) error {
	if err := validateEvent(query, durationMs); err != nil {
		metrics.SearchEvent("rejected")
		return err
	}

	event := models.SearchEvent{
		Query:     sanitizeQuery(query),
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Duration:  math.Round(durationMs),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		metrics.SearchEvent("failed")
		return fmt.Errorf("encode search event: %w", err)
	}
	if err := s.store.RPush(ctx, s.key, raw); err != nil {
		metrics.SearchEvent("failed")
		return fmt.Errorf("append search event: %w", err)
	}
	metrics.SearchEvent("logged")
	return nil
}

// RecordAccess appends an access marker to the event stream, best-effort.
// Failures are logged for operators and otherwise invisible.
func (s *SearchLog) RecordAccess(ctx context.Context, action, method, remote string) {
	entry := map[string]string{
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"action":    action,
		"method":    method,
		"ip":        remote,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.store.RPush(ctx, s.key, raw); err != nil {
		s.logger.Warn("access log append failed", slog.Any("error", err))
	}
}

func validateEvent(query string, durationMs float64) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", ErrInvalidEvent)
	}
	if len(query) > MaxQueryLength {
		return fmt.Errorf("%w: query exceeds %d characters", ErrInvalidEvent, MaxQueryLength)
	}
	if math.IsNaN(durationMs) || math.IsInf(durationMs, 0) {
		return fmt.Errorf("%w: duration is not finite", ErrInvalidEvent)
	}
	if durationMs < 0 || durationMs > MaxDurationMs {
		return fmt.Errorf("%w: duration %v out of [0,%d]", ErrInvalidEvent, durationMs, MaxDurationMs)
	}
	return nil
}

func sanitizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		query = query[:MaxQueryLength]
	}
	return query
}
