package main

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/migrations"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, "0001", "init_schema_migrations"},
		{"0012_create_loans.sql", true, "0012", "create_loans"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m := migrationPattern.FindStringSubmatch(tt.filename)
			if (m != nil) != tt.valid {
				t.Fatalf("match = %v, want %v", m != nil, tt.valid)
			}
			if !tt.valid {
				return
			}
			if m[1] != tt.version || m[2] != tt.name {
				t.Errorf("got (%s, %s), want (%s, %s)", m[1], m[2], tt.version, tt.name)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0002_create_things.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.things` (id STRING)")},
		"sql/0001_init.sql":          {Data: []byte("SELECT 1")},
		"sql/README.md":              {Data: []byte("notes")},
	}

	got, err := readMigrations(fsys, "sql", "proj", "ds", zerolog.Nop())
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d migrations, want 2", len(got))
	}
	if got[0].Version != 1 || got[1].Version != 2 {
		t.Errorf("versions = %d, %d, want 1, 2", got[0].Version, got[1].Version)
	}
	if want := "CREATE TABLE `proj.ds.things` (id STRING)"; got[1].SQL != want {
		t.Errorf("SQL = %q, want %q", got[1].SQL, want)
	}
	if got[0].Checksum == got[1].Checksum {
		t.Error("different files should have different checksums")
	}

	again, err := readMigrations(fsys, "sql", "other", "other", zerolog.Nop())
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if again[1].Checksum != got[1].Checksum {
		t.Error("checksum should not depend on project or dataset")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}
	if _, err := readMigrations(fsys, ".", "p", "d", zerolog.Nop()); err == nil {
		t.Fatal("expected error for duplicate version")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := readMigrations(migrations.BigQuery, "bigquery", "proj", "ds", zerolog.Nop())
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i, m := range got {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("migration %s has unrendered placeholders", m.Filename)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "init", Checksum: "a"},
		{Version: 2, Name: "accounts", Checksum: "b"},
		{Version: 3, Name: "transactions", Checksum: "c"},
	}

	t.Run("skips applied", func(t *testing.T) {
		pending, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "a"}, {Version: 2}})
		if err != nil {
			t.Fatalf("pendingMigrations: %v", err)
		}
		if len(pending) != 1 || pending[0].Version != 3 {
			t.Errorf("pending = %+v, want only version 3", pending)
		}
	})

	t.Run("checksum drift", func(t *testing.T) {
		if _, err := pendingMigrations(all, []AppliedMigration{{Version: 2, Checksum: "zzz"}}); err == nil {
			t.Fatal("expected error when an applied migration changed")
		}
	})
}
