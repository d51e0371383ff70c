package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/logger"
)

// RecurringProcessor is the part of the ledger service the worker needs.
type RecurringProcessor interface {
	Users(ctx context.Context) ([]string, error)
	ProcessRecurring(ctx context.Context, userID string) (ledger.ProcessResult, error)
}

// RecurringHandler runs ProcessRecurring for each job it receives.
func RecurringHandler(p RecurringProcessor, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		j, ok := job.(*ProcessRecurringJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		jobLog := log.With().Str("job_id", j.JobID).Str("user_id", j.UserID).Logger()
		ctx = logger.WithContext(ctx, jobLog)

		res, err := p.ProcessRecurring(ctx, j.UserID)
		j.Created = len(res.Created)
		if err != nil {
			jobLog.Error().Err(err).Msg("Recurring pass failed")
			return err
		}

		jobLog.Info().
			Int("created", len(res.Created)).
			Int("deactivated", len(res.Deactivated)).
			Int("skipped", res.Skipped).
			Msg("Recurring pass completed")
		return nil
	}
}

// Scheduler publishes one recurring job per user every Interval.
type Scheduler struct {
	Processor RecurringProcessor
	Publisher Publisher
	Interval  time.Duration
	Log       zerolog.Logger
}

// Run publishes immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		return fmt.Errorf("Scheduler.Run: interval must be positive, got %s", s.Interval)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		if n, err := s.Tick(ctx); err != nil {
			s.Log.Error().Err(err).Int("published", n).Msg("Recurring schedule tick failed")
		} else {
			s.Log.Debug().Int("published", n).Msg("Recurring jobs published")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick publishes a job for every known user and returns how many were
// enqueued.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	users, err := s.Processor.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("Scheduler.Tick: listing users: %w", err)
	}

	published := 0
	for _, u := range users {
		job := &ProcessRecurringJob{UserID: u, Trigger: "scheduler"}
		if err := s.Publisher.PublishProcessRecurring(ctx, job); err != nil {
			return published, fmt.Errorf("Scheduler.Tick: publishing for %s: %w", u, err)
		}
		published++
	}
	return published, nil
}
