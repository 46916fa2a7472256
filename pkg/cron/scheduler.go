// Package cron runs the estimate sync on a schedule using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work a scheduled run performs.
type Job func(ctx context.Context) error

// Scheduler triggers the estimate sync on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	job      Job
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler for the given 5-field cron expression.
func NewScheduler(schedule string, job Job, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		job:      job,
		timeout:  30 * time.Minute,
		logger:   logger,
	}
}

// Start registers the sync job and begins the schedule.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runJob)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops the schedule. The returned context is done when
// any in-flight run has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers a sync outside the schedule.
func (s *Scheduler) RunNow() {
	go s.runJob()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("scheduled sync starting")

	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled sync failed",
			slog.Any("error", err),
			slog.Duration("elapsed", time.Since(start)),
		)
		return
	}

	s.logger.Info("scheduled sync completed",
		slog.Duration("elapsed", time.Since(start)),
	)
}
