package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/peopledeck/peopledeck/internal/metrics"
	"github.com/peopledeck/peopledeck/internal/models"
	"github.com/peopledeck/peopledeck/internal/stats"
	"github.com/peopledeck/peopledeck/internal/store"
)

// Stats drains the event stream, recomputes the aggregate and replaces the
// persisted snapshot. The on-demand endpoint and the scheduled job share
// this exact path; this service is the sole writer of the snapshot key.
type Stats struct {
	store    store.Provider
	logger   *slog.Logger
	logsKey  string
	statsKey string
	now      func() time.Time
}

// NewStats creates the aggregation service.
func NewStats(p store.Provider, logsKey, statsKey string, logger *slog.Logger) *Stats {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stats{store: p, logger: logger, logsKey: logsKey, statsKey: statsKey, now: time.Now}
}

// Recompute reads the whole event stream, recomputes the aggregate from
// scratch and atomically replaces the snapshot. It returns nil without
// writing anything when the stream is empty. Malformed entries are skipped
// with a warning; only an unreachable store fails the run.
func (s *Stats) Recompute(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()

	raw, err := s.store.LRange(ctx, s.logsKey, 0, -1)
	if err != nil {
		metrics.ObserveAggregation(time.Since(start), metrics.OutcomeError)
		return nil, fmt.Errorf("read event stream: %w", err)
	}

	events := s.parseEvents(raw)
	computed := stats.Compute(events)
	if computed == nil {
		metrics.ObserveAggregation(time.Since(start), metrics.OutcomeSuccess)
		s.logger.Info("no events to aggregate")
		return nil, nil
	}

	snapshot := &models.Snapshot{
		Stats:     *computed,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		metrics.ObserveAggregation(time.Since(start), metrics.OutcomeError)
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.statsKey, payload); err != nil {
		metrics.ObserveAggregation(time.Since(start), metrics.OutcomeError)
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	metrics.ObserveAggregation(time.Since(start), metrics.OutcomeSuccess)
	s.logger.Info("stats recomputed",
		slog.Int("events", len(events)),
		slog.Int("skipped", len(raw)-len(events)))
	return snapshot, nil
}

// Snapshot returns the persisted snapshot verbatim, or store.ErrNotFound
// when none has ever been computed.
func (s *Stats) Snapshot(ctx context.Context) ([]byte, error) {
	return s.store.Get(ctx, s.statsKey)
}

// parseEvents decodes stream entries, discarding structurally invalid ones.
// The pointer fields distinguish absent fields from zero values.
func (s *Stats) parseEvents(raw [][]byte) []models.SearchEvent {
	events := make([]models.SearchEvent, 0, len(raw))
	for _, entry := range raw {
		var re struct {
			Query     *string  `json:"query"`
			Timestamp *string  `json:"timestamp"`
			Duration  *float64 `json:"duration"`
		}
		if err := json.Unmarshal(entry, &re); err != nil {
			s.logger.Warn("skipping unparsable event", slog.Any("error", err))
			continue
		}
		if re.Query == nil || re.Timestamp == nil || re.Duration == nil ||
			math.IsNaN(*re.Duration) || math.IsInf(*re.Duration, 0) {
			s.logger.Warn("skipping malformed event", slog.String("entry", string(entry)))
			continue
		}
		events = append(events, models.SearchEvent{
			Query:     *re.Query,
			Timestamp: *re.Timestamp,
			Duration:  *re.Duration,
		})
	}
	return events
}
