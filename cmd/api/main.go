package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/advisor"
	"github.com/dvloznov/pocket-pulse/internal/api"
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
	enableAdvice := flag.Bool("advice", os.Getenv("GEMINI_ENABLED") == "true", "Enable Gemini spending advice (or set GEMINI_ENABLED=true)")
	embeddedWorker := flag.Bool("worker", true, "Run the recurring scheduler and job workers in this process")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	clock, err := cfg.Clock()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid time zone")
	}

	ctx := logger.WithContext(context.Background(), log)

	st, closeStore, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to open store")
	}
	defer closeStore()

	svc := ledger.NewService(st, clock, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if *embeddedWorker {
		go func() {
			log.Info().Msg("Starting job worker")
			if err := jobQueue.Start(workerCtx, jobs.RecurringHandler(svc, log)); err != nil {
				log.Error().Err(err).Msg("Job worker stopped with error")
			}
		}()

		scheduler := &jobs.Scheduler{
			Processor: svc,
			Publisher: jobQueue,
			Interval:  cfg.RecurringEvery,
			Log:       log,
		}
		go func() {
			log.Info().Dur("interval", cfg.RecurringEvery).Msg("Starting recurring scheduler")
			if err := scheduler.Run(workerCtx); err != nil {
				log.Error().Err(err).Msg("Recurring scheduler stopped with error")
			}
		}()
	}

	deps := api.Deps{
		Ledger: svc,
		Jobs:   jobStore,
		Log:    log,
		Now:    clock.Now,
	}
	if *embeddedWorker {
		deps.Publisher = jobQueue
	}

	if *enableAdvice {
		adv, err := advisor.NewGeminiAdvisor(ctx, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini advisor")
		}
		deps.Advisor = adv
	} else {
		log.Warn().Msg("Gemini advice disabled - /api/advice will return 503")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Backend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
