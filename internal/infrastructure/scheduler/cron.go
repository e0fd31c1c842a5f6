// Package scheduler runs the pipeline on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
	"github.com/trueinf/Repushieldv7-sub000/pkg/logger"
)

// CronScheduler drives a job on a cron expression. Runs do not overlap:
// a tick that arrives while the previous run is still going is skipped.
type CronScheduler struct {
	spec     string
	location *time.Location
	runner   *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from a standard 5-field cron
// expression. timezone may be empty for UTC.
func NewCronScheduler(spec, timezone string) (*CronScheduler, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}
	return &CronScheduler{spec: spec, location: loc}, nil
}

// Start registers the job and begins the cron loop.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.runner != nil {
		return nil
	}

	runner := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(cron.PrintfLogger(logger.New("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := runner.AddFunc(c.spec, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job(time.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	c.runner = runner
	runner.Start()
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish or the
// context to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.runner == nil {
		return nil
	}
	done := c.runner.Stop()
	c.runner = nil

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
