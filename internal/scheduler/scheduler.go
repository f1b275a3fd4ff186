package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner is one sync cycle. Errors are logged, not fatal to the loop.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler owns the watch loop: runs a sync immediately, then on an interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that syncs at the given interval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the watch loop. It runs one immediate sync, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting watch loop", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down watch loop")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.runner.RunOnce(ctx); err != nil {
		s.logger.Error("sync failed", "error", err)
	}
}
