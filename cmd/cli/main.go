package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/archive"
	"github.com/dvloznov/pocket-pulse/internal/config"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/logger"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

func main() {
	log := logger.NewFromEnv()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess(log)
	case "preview":
		runPreview(log)
	case "dashboard":
		runDashboard(log)
	case "snapshot":
		runSnapshot(log)
	case "restore":
		runRestore(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Pocket Pulse CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process    Create due recurring transactions for one user or all users")
	fmt.Println("  preview    Show the next dates of a recurring schedule")
	fmt.Println("  dashboard  Print a user's dashboard for the current month")
	fmt.Println("  snapshot   Back up a user's ledger to GCS")
	fmt.Println("  restore    Replace a user's ledger with a GCS snapshot")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env is what every ledger command needs once flags are parsed.
type env struct {
	ctx   context.Context
	cfg   config.Config
	svc   *ledger.Service
	close func() error
}

// parse registers the shared configuration flags on fs, parses the
// command's arguments and opens the store.
func parse(log zerolog.Logger, fs *flag.FlagSet) env {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[2:])

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
	return env{ctx: ctx, cfg: cfg, svc: ledger.NewService(st, clock, log), close: closeStore}
}

func openArchive(e env, log zerolog.Logger) (*archive.Archive, func() error) {
	if e.cfg.GCSBucket == "" {
		log.Fatal().Msg("Error: --bucket (or GCS_BUCKET) is required")
	}
	gcs, err := archive.NewGCSStore(e.ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	return archive.New(gcs, e.cfg.GCSBucket, time.Now), gcs.Close
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (all users when empty)")
	e := parse(log, fs)
	defer e.close()

	users := []string{*userID}
	if *userID == "" {
		var err error
		users, err = e.svc.Users(e.ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
	}

	for _, u := range users {
		res, err := e.svc.ProcessRecurring(e.ctx, u)
		if err != nil {
			log.Error().Err(err).Str("user_id", u).Msg("Recurring pass failed")
			continue
		}
		fmt.Printf("%s: created %d, deactivated %d, skipped %d\n", u, len(res.Created), len(res.Deactivated), res.Skipped)
		for _, tx := range res.Created {
			fmt.Printf("  %s  %-30s %10s\n", tx.Date, tx.Description, tx.Amount.StringFixed(2))
		}
	}
}

func runPreview(log zerolog.Logger) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	frequency := fs.String("frequency", "monthly", "daily, weekly, biweekly, monthly, quarterly or yearly")
	start := fs.String("start-date", "", "First occurrence in YYYY-MM-DD format (required)")
	end := fs.String("end-date", "", "Last possible occurrence in YYYY-MM-DD format")
	count := fs.Int("count", 5, "Number of dates to show")
	e := parse(log, fs)
	defer e.close()

	form := validate.RecurringForm{Frequency: *frequency, StartDate: *start, EndDate: *end}
	ds, err := e.svc.PreviewRule(form, *count)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid schedule")
	}
	for _, d := range ds {
		fmt.Println(d)
	}
}

func runDashboard(log zerolog.Logger) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	asJSON := fs.Bool("json", false, "Print the dashboard as JSON")
	e := parse(log, fs)
	defer e.close()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	d, err := e.svc.Dashboard(e.ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build dashboard")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode dashboard")
		}
		return
	}

	m := d.Metrics
	fmt.Printf("\n=== Dashboard %s ===\n", d.Month)
	fmt.Printf("Net worth:        %s\n", m.NetWorth.StringFixed(2))
	fmt.Printf("Monthly income:   %s\n", m.MonthlyIncome.StringFixed(2))
	fmt.Printf("Monthly expenses: %s\n", m.MonthlyExpenses.StringFixed(2))
	fmt.Printf("Today / week:     %s / %s\n", m.DailyExpenses.StringFixed(2), m.WeeklyExpenses.StringFixed(2))
	fmt.Printf("Avg daily (30d):  %s\n", m.AvgDailyExpense.StringFixed(2))
	fmt.Printf("Savings rate:     %s%%\n", m.SavingsRate.StringFixed(1))

	if len(d.Categories) > 0 {
		fmt.Println("\n=== Spending by category ===")
		for _, c := range d.Categories {
			fmt.Printf("  %-20s %10s\n", c.Name, c.Value.StringFixed(2))
		}
	}
	if len(d.Budgets) > 0 {
		fmt.Println("\n=== Budgets ===")
		for _, b := range d.Budgets {
			fmt.Printf("  %-20s %10s / %-10s %6s%%\n", b.Category, b.Spent.StringFixed(2), b.Limit.StringFixed(2), b.Percentage.StringFixed(0))
		}
	}
	if len(d.Upcoming) > 0 {
		fmt.Println("\n=== Upcoming ===")
		for _, r := range d.Upcoming {
			if r.NextOccurrence != nil {
				fmt.Printf("  %s  %-30s %10s\n", r.NextOccurrence, r.Description, r.Amount.StringFixed(2))
			}
		}
	}
	fmt.Println()
}

func runSnapshot(log zerolog.Logger) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	e := parse(log, fs)
	defer e.close()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	arc, closeArc := openArchive(e, log)
	defer closeArc()

	l, err := e.svc.Snapshot(e.ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}
	uri, err := arc.Save(e.ctx, l)
	if err != nil {
		log.Fatal().Err(err).Msg("Snapshot upload failed")
	}

	log.Info().
		Str("user_id", *userID).
		Int("transactions", len(l.Transactions)).
		Str("gcs_uri", uri).
		Msg("Snapshot saved")
	fmt.Println(uri)
}

func runRestore(log zerolog.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to restore into (defaults to the snapshot's user)")
	uri := fs.String("gcs-uri", "", "Snapshot URI (defaults to the user's latest snapshot)")
	e := parse(log, fs)
	defer e.close()

	if *uri == "" && *userID == "" {
		log.Fatal().Msg("Usage: cli restore -user ID | -gcs-uri URI")
	}

	arc, closeArc := openArchive(e, log)
	defer closeArc()

	if *uri == "" {
		latest, err := arc.Latest(e.ctx, *userID)
		if err != nil {
			log.Fatal().Err(err).Msg("No snapshot to restore")
		}
		*uri = latest
	}

	snap, err := arc.Load(e.ctx, *uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load snapshot")
	}
	target := *userID
	if target == "" {
		target = snap.Ledger.UserID
	}

	if err := e.svc.Restore(e.ctx, target, snap.Ledger); err != nil {
		log.Fatal().Err(err).Msg("Restore failed")
	}

	fmt.Printf("Restored %s (taken %s) into %s.\n", *uri, snap.TakenAt.Format(time.RFC3339), target)
}
