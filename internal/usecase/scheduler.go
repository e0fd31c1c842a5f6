package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// Scheduler wires the cron driver with the orchestrator: each trigger loads
// the active configuration and runs one full orchestration for it.
type Scheduler struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
	configs      ports.ConfigurationStore
	logger       zerolog.Logger
}

// NewScheduler returns a helper to start/stop recurring orchestration runs.
func NewScheduler(driver ports.Scheduler, orchestrator *Orchestrator,
	configs ports.ConfigurationStore, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		driver:       driver,
		orchestrator: orchestrator,
		configs:      configs,
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the orchestration job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		cfg, err := s.configs.Active(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("no active configuration, skipping run")
			return
		}
		result := s.orchestrator.Run(ctx, cfg)
		s.logger.Info().
			Time("trigger", trigger).
			Str("run_id", result.RunID).
			Int("stored", result.TotalStored).
			Msg("scheduled run finished")
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
