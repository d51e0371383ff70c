// Package config collects the settings shared by every command. Each value
// can come from a flag or, failing that, from its environment variable.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/dates"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
)

// Defaults.
const (
	DefaultSQLitePath        = "data/pocket-pulse.db"
	DefaultDataset           = "pocket_pulse"
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultRecurringInterval = time.Hour
	DefaultPort              = "8080"
)

// Config is the union of every command's settings.
type Config struct {
	Backend    string
	SQLitePath string
	BQProject  string
	BQDataset  string

	GCSBucket      string
	NotionToken    string
	NotionDBID     string
	GeminiModel    string
	Timezone       string
	Port           string
	LogLevel       string
	LogFormat      string
	RecurringEvery time.Duration
}

// FromEnv reads every setting from the environment, applying defaults.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	c := Config{
		Backend:        or(getenv("STORE_BACKEND"), BackendMemory),
		SQLitePath:     or(getenv("SQLITE_PATH"), DefaultSQLitePath),
		BQProject:      getenv("BQ_PROJECT"),
		BQDataset:      or(getenv("BQ_DATASET"), DefaultDataset),
		GCSBucket:      getenv("GCS_BUCKET"),
		NotionToken:    getenv("NOTION_TOKEN"),
		NotionDBID:     getenv("NOTION_DB_ID"),
		GeminiModel:    or(getenv("GEMINI_MODEL"), DefaultGeminiModel),
		Timezone:       getenv("LEDGER_TZ"),
		Port:           or(getenv("PORT"), DefaultPort),
		LogLevel:       getenv("LOG_LEVEL"),
		LogFormat:      getenv("LOG_FORMAT"),
		RecurringEvery: DefaultRecurringInterval,
	}

	if raw := getenv("RECURRING_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: RECURRING_INTERVAL: %w", err)
		}
		c.RecurringEvery = d
	}
	return c, nil
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// RegisterFlags binds flags on fs whose defaults are the current values of c.
// Call it with the result of FromEnv, then fs.Parse, then Validate.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend, "store", c.Backend, "Store backend: memory, sqlite or bigquery (or set STORE_BACKEND)")
	fs.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "SQLite database file (or set SQLITE_PATH)")
	fs.StringVar(&c.BQProject, "project", c.BQProject, "GCP project ID for BigQuery (or set BQ_PROJECT)")
	fs.StringVar(&c.BQDataset, "dataset", c.BQDataset, "BigQuery dataset ID (or set BQ_DATASET)")
	fs.StringVar(&c.GCSBucket, "bucket", c.GCSBucket, "GCS bucket for snapshots (or set GCS_BUCKET)")
	fs.StringVar(&c.NotionToken, "notion-token", c.NotionToken, "Notion API token (or set NOTION_TOKEN)")
	fs.StringVar(&c.NotionDBID, "notion-db-id", c.NotionDBID, "Notion database ID (or set NOTION_DB_ID)")
	fs.StringVar(&c.GeminiModel, "model", c.GeminiModel, "Gemini model for advice (or set GEMINI_MODEL)")
	fs.StringVar(&c.Timezone, "tz", c.Timezone, "IANA time zone that defines \"today\" (or set LEDGER_TZ)")
	fs.StringVar(&c.Port, "port", c.Port, "HTTP server port (or set PORT)")
	fs.DurationVar(&c.RecurringEvery, "recurring-interval", c.RecurringEvery, "How often recurring rules are processed (or set RECURRING_INTERVAL)")
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: sqlite backend needs a path")
		}
	case BackendBigQuery:
		if c.BQProject == "" || c.BQDataset == "" {
			return fmt.Errorf("config: bigquery backend needs project and dataset")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Backend)
	}

	if c.RecurringEvery <= 0 {
		return fmt.Errorf("config: recurring interval must be positive, got %s", c.RecurringEvery)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the process's local zone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("config: LEDGER_TZ %q: %w", tz, err)
	}
	return loc, nil
}

// Clock returns the system clock in the configured zone.
func (c Config) Clock() (dates.Clock, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return dates.SystemClock{Location: loc}, nil
}
