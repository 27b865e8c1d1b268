// Package scheduler runs the recurring stats aggregation job.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers the aggregation job on a fixed interval. The job is
// the same code path as the on-demand recompute endpoint.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	interval time.Duration
	job      func(ctx context.Context) error
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a scheduler invoking job every interval.
func New(interval time.Duration, job func(ctx context.Context) error, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		logger:   logger,
		interval: interval,
		job:      job,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start schedules the job and begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		if err := s.job(s.ctx); err != nil {
			s.logger.Error("scheduled aggregation failed", slog.Any("error", err))
		}
	}))
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// Running reports whether any job is scheduled.
func (s *Scheduler) Running() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
