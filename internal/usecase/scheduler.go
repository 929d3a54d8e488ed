package usecase

import (
	"context"
	"log/slog"
	"time"

	"AINewsBrief/internal/ports"
)

// Scheduler hands pipeline runs to a trigger driver such as the cron scheduler.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler pairs a driver with the pipeline it should trigger.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: log}
}

// Start registers one pipeline run per trigger. Runs share ctx, so cancelling it
// interrupts a run in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(at time.Time) { s.trigger(ctx, at) })
}

// Stop stops the driver and waits for it.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) trigger(ctx context.Context, at time.Time) {
	log := s.logger.With("trigger", at.Format(time.RFC3339))

	state, err := s.pipeline.Run(ctx)
	if err != nil {
		log.Warn("scheduled run interrupted", "run_id", state.RunID, "error", err)
		return
	}
	if len(state.Errors) > 0 {
		log.Warn("scheduled run finished with errors", "run_id", state.RunID, "delivered", state.Delivered, "errors", state.Errors)
		return
	}
	log.Info("scheduled run done", "run_id", state.RunID, "admitted", len(state.Admitted), "delivered", state.Delivered)
}
