package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/pocket-pulse/internal/logger"
	"github.com/dvloznov/pocket-pulse/migrations"
)

// Migration is one numbered schema file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

type migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
	log       zerolog.Logger
}

func main() {
	var (
		projectID = flag.String("project", os.Getenv("BQ_PROJECT"), "GCP project ID (or set BQ_PROJECT)")
		datasetID = flag.String("dataset", envOr("BQ_DATASET", "pocket_pulse"), "BigQuery dataset ID (or set BQ_DATASET)")
		appliedBy = flag.String("applied-by", "migrate-cli", "Name recorded in schema_migrations.applied_by")
		dir       = flag.String("migrations", "", "Read migrations from this directory instead of the embedded set")
		dryRun    = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	log := logger.NewFromEnv()
	ctx := context.Background()

	if *projectID == "" {
		log.Fatal().Msg("-project is required")
	}

	var fsys fs.FS
	root := "bigquery"
	if *dir != "" {
		fsys, root = os.DirFS(*dir), "."
	} else {
		fsys = migrations.BigQuery
	}

	pending, err := readMigrations(fsys, root, *projectID, *datasetID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(pending)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{
		client:    client,
		projectID: *projectID,
		datasetID: *datasetID,
		appliedBy: *appliedBy,
		log:       log.With().Str("project", *projectID).Str("dataset", *datasetID).Logger(),
	}

	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list applied migrations")
	}

	count, err := m.apply(ctx, pending, applied, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	if count == 0 {
		m.log.Info().Msg("Schema is up to date")
		return
	}
	m.log.Info().Int("applied", count).Bool("dry_run", *dryRun).Msg("Migrations complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// readMigrations loads every NNNN_name.sql file under root, sorted by
// version. The checksum covers the file before placeholder substitution so
// the same migration hashes identically across projects.
func readMigrations(fsys fs.FS, root, projectID, datasetID string, log zerolog.Logger) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("readMigrations: listing %s: %w", root, err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			log.Debug().Str("file", entry.Name()).Msg("Skipping non-migration file")
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("readMigrations: bad version in %s: %w", entry.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("readMigrations: version %04d used by %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, pathJoin(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("readMigrations: reading %s: %w", entry.Name(), err)
		}

		out = append(out, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      render(string(content), projectID, datasetID),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func pathJoin(root, name string) string {
	if root == "." || root == "" {
		return name
	}
	return root + "/" + name
}

func render(sql, projectID, datasetID string) string {
	sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", projectID)
	return strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)
}

// pendingMigrations returns the migrations whose version has not been
// recorded. A recorded checksum that no longer matches the file is an error.
func pendingMigrations(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	done := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		done[am.Version] = am
	}

	var pending []Migration
	for _, m := range all {
		am, ok := done[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("migration %04d_%s changed after it was applied", m.Version, m.Name)
		}
	}
	return pending, nil
}

func (m *migrator) apply(ctx context.Context, all []Migration, applied []AppliedMigration, dryRun bool) (int, error) {
	pending, err := pendingMigrations(all, applied)
	if err != nil {
		return 0, err
	}

	for _, mig := range pending {
		log := m.log.With().Int("version", mig.Version).Str("name", mig.Name).Logger()
		if dryRun {
			log.Info().Msg("Pending")
			continue
		}

		log.Info().Msg("Applying")
		if err := m.run(ctx, mig.SQL, nil); err != nil {
			return 0, fmt.Errorf("executing %04d_%s: %w", mig.Version, mig.Name, err)
		}
		if err := m.record(ctx, mig); err != nil {
			return 0, fmt.Errorf("recording %04d_%s: %w", mig.Version, mig.Name, err)
		}
		log.Info().Msg("Applied")
	}
	return len(pending), nil
}

func (m *migrator) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", m.projectID, m.datasetID, name)
}

func (m *migrator) run(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (m *migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	return m.run(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)`, m.table("schema_migrations")), nil)
}

func (m *migrator) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(fmt.Sprintf(
		"SELECT version, name, applied_at, checksum, applied_by FROM %s ORDER BY version",
		m.table("schema_migrations")))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating applied migrations: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

func (m *migrator) record(ctx context.Context, mig Migration) error {
	return m.run(ctx, fmt.Sprintf(`
		INSERT INTO %s (version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`,
		m.table("schema_migrations")),
		[]bigquery.QueryParameter{
			{Name: "version", Value: mig.Version},
			{Name: "name", Value: mig.Name},
			{Name: "checksum", Value: mig.Checksum},
			{Name: "applied_by", Value: m.appliedBy},
		})
}
