package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/config"
	"github.com/dvloznov/pocket-pulse/internal/jobs"
	"github.com/dvloznov/pocket-pulse/internal/jobs/inmemory"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/logger"
)

func main() {
	log := logger.NewFromEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	cfg.RegisterFlags(flag.CommandLine)
	once := flag.Bool("once", false, "Process every user's recurring rules once and exit")
	workers := flag.Int("workers", inmemory.DefaultWorkers, "Number of concurrent job workers")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Backend == config.BackendMemory {
		log.Warn().Msg("Worker is using the in-memory store - it shares no data with the API process")
	}

	clock, err := cfg.Clock()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid time zone")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	st, closeStore, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to open store")
	}
	defer closeStore()

	svc := ledger.NewService(st, clock, log)

	if *once {
		if err := processAll(ctx, svc, log); err != nil {
			log.Error().Err(err).Msg("Recurring pass failed")
			closeStore()
			os.Exit(1)
		}
		return
	}

	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)
	jobQueue.Workers = *workers

	log.Info().Str("store", cfg.Backend).Msg("Starting worker service")

	if err := jobQueue.Start(ctx, jobs.RecurringHandler(svc, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	scheduler := &jobs.Scheduler{
		Processor: svc,
		Publisher: jobQueue,
		Interval:  cfg.RecurringEvery,
		Log:       log,
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Recurring scheduler stopped with error")
		}
	}()

	log.Info().Dur("interval", cfg.RecurringEvery).Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

// processAll runs one synchronous pass per user, continuing past failures.
func processAll(ctx context.Context, svc *ledger.Service, log zerolog.Logger) error {
	users, err := svc.Users(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, u := range users {
		res, err := svc.ProcessRecurring(ctx, u)
		if err != nil {
			log.Error().Err(err).Str("user_id", u).Msg("Recurring pass failed for user")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info().
			Str("user_id", u).
			Int("created", len(res.Created)).
			Int("deactivated", len(res.Deactivated)).
			Int("skipped", res.Skipped).
			Msg("Recurring pass completed")
	}
	return firstErr
}
