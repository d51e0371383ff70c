package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pocket-pulse/internal/config"
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/finance"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/logger"
	"github.com/dvloznov/pocket-pulse/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.NewFromEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	cfg.RegisterFlags(flag.CommandLine)

	// Parse CLI flags
	userID := flag.String("user", "", "User whose transactions are mirrored (required)")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (all history when empty)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (no upper bound when empty)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if cfg.NotionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if cfg.NotionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	var filters finance.Filters
	var opts notionsync.Options
	opts.DryRun = *dryRun

	if *startDateStr != "" {
		d, err := dates.Parse(*startDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
		filters.DateFrom, opts.From = &d, &d
	}
	if *endDateStr != "" {
		d, err := dates.Parse(*endDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
		filters.DateTo, opts.To = &d, &d
	}

	// Validate date range
	if opts.From != nil && opts.To != nil && opts.To.Before(*opts.From) {
		log.Fatal().
			Str("start_date", opts.From.String()).
			Str("end_date", opts.To.String()).
			Msg("Error: end-date must not be before start-date")
	}

	clock, err := cfg.Clock()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid time zone")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, logger.WithUser(log, *userID))

	st, closeStore, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to open store")
	}
	defer closeStore()

	svc := ledger.NewService(st, clock, log)

	list, err := svc.Transactions(ctx, *userID, "", filters)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	log.Info().
		Str("start_date", dateOrEmpty(opts.From)).
		Str("end_date", dateOrEmpty(opts.To)).
		Int("transactions", len(list.Transactions)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	notionClient := notionsync.NewNotionClient(cfg.NotionToken)

	res, err := notionsync.SyncTransactions(ctx, notionClient, cfg.NotionDBID, list.Transactions, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d unchanged, %d archived, %d failed.\n",
		res.Created, res.Updated, res.Unchanged, res.Archived, res.Failed)
}

func dateOrEmpty(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
