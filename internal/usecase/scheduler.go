package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsFetcher/internal/ports"
)

// Scheduler wires the cron-like driver with the orchestrator.
type Scheduler struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, orchestrator *Orchestrator, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, orchestrator: orchestrator, logger: logger}
}

// Start registers the orchestrator run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(tick time.Time) {
		if _, err := s.orchestrator.Run(ctx, "schedule"); err != nil {
			s.logger.Error("scheduled run failed", "tick", tick, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
