// Package sqlite stores ledger documents in a single SQLite table, one JSON
// body per entity, mirroring the per-user collection layout of the hosted
// document store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"

	_ "modernc.org/sqlite"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (user_id, collection, id)
)`,
	`CREATE INDEX IF NOT EXISTS documents_user_collection ON documents (user_id, collection, seq)`,
}

const upsertSQL = `
INSERT INTO documents (user_id, collection, id, body, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`

// Store is a store.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite.Open: creating %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite.Open: applying schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func put(ctx context.Context, ex execer, userID string, c store.Collection, id string, v any) error {
	if userID == "" || id == "" {
		return fmt.Errorf("user ID and entity ID are required")
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", c, id, err)
	}
	if _, err := ex.ExecContext(ctx, upsertSQL, userID, string(c), id, string(body), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("writing %s %s: %w", c, id, err)
	}
	return nil
}

func get[T any](ctx context.Context, ex execer, userID string, c store.Collection, id string) (T, error) {
	var (
		v    T
		body string
	)
	err := ex.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		userID, string(c), id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return v, fmt.Errorf("%s %s: %w", c, id, store.ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("reading %s %s: %w", c, id, err)
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return v, fmt.Errorf("decoding %s %s: %w", c, id, err)
	}
	return v, nil
}

func list[T any](ctx context.Context, db *sql.DB, userID string, c store.Collection) ([]T, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE user_id = ? AND collection = ? ORDER BY seq`,
		userID, string(c),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c, err)
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", c, id, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", c, err)
	}
	return out, nil
}

func (s *Store) remove(ctx context.Context, userID string, c store.Collection, id string) error {
	return remove(ctx, s.db, userID, c, id)
}

func remove(ctx context.Context, ex execer, userID string, c store.Collection, id string) error {
	res, err := ex.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = ? AND collection = ? AND id = ?`,
		userID, string(c), id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", c, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", c, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", c, id, store.ErrNotFound)
	}
	return nil
}

// ListUsers implements store.Store.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM documents ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUsers: scanning: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	return list[domain.Account](ctx, s.db, userID, store.Accounts)
}

// GetAccount implements store.Store.
func (s *Store) GetAccount(ctx context.Context, userID, id string) (domain.Account, error) {
	return get[domain.Account](ctx, s.db, userID, store.Accounts, id)
}

// SaveAccount implements store.Store.
func (s *Store) SaveAccount(ctx context.Context, userID string, a domain.Account) error {
	return put(ctx, s.db, userID, store.Accounts, a.ID, a)
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.remove(ctx, userID, store.Accounts, id)
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return list[domain.Transaction](ctx, s.db, userID, store.Transactions)
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (domain.Transaction, error) {
	return get[domain.Transaction](ctx, s.db, userID, store.Transactions, id)
}

// SaveTransaction implements store.Store.
func (s *Store) SaveTransaction(ctx context.Context, userID string, tx domain.Transaction) error {
	return put(ctx, s.db, userID, store.Transactions, tx.ID, tx)
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.remove(ctx, userID, store.Transactions, id)
}

// ListBudgets implements store.Store.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	return list[domain.Budget](ctx, s.db, userID, store.Budgets)
}

// SaveBudget implements store.Store.
func (s *Store) SaveBudget(ctx context.Context, userID string, b domain.Budget) error {
	return put(ctx, s.db, userID, store.Budgets, b.Category, b)
}

// DeleteBudget implements store.Store.
func (s *Store) DeleteBudget(ctx context.Context, userID, category string) error {
	return s.remove(ctx, userID, store.Budgets, category)
}

// ListRecurringRules implements store.Store.
func (s *Store) ListRecurringRules(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	return list[domain.RecurringRule](ctx, s.db, userID, store.RecurringRules)
}

// GetRecurringRule implements store.Store.
func (s *Store) GetRecurringRule(ctx context.Context, userID, id string) (domain.RecurringRule, error) {
	return get[domain.RecurringRule](ctx, s.db, userID, store.RecurringRules, id)
}

// SaveRecurringRule implements store.Store.
func (s *Store) SaveRecurringRule(ctx context.Context, userID string, r domain.RecurringRule) error {
	return put(ctx, s.db, userID, store.RecurringRules, r.ID, r)
}

// DeleteRecurringRule implements store.Store.
func (s *Store) DeleteRecurringRule(ctx context.Context, userID, id string) error {
	return s.remove(ctx, userID, store.RecurringRules, id)
}

// Commit implements store.Store inside one SQL transaction.
func (s *Store) Commit(ctx context.Context, userID string, b store.Batch) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Commit: begin: %w", err)
	}
	defer sqlTx.Rollback()

	if b.Rule != nil {
		current, err := get[domain.RecurringRule](ctx, sqlTx, userID, store.RecurringRules, b.Rule.ID)
		if err != nil {
			return fmt.Errorf("Commit: %w", err)
		}
		if !store.SameOccurrence(current.NextOccurrence, b.ExpectedNext) {
			return fmt.Errorf("Commit: recurring rule %s: %w", b.Rule.ID, store.ErrStaleRule)
		}
		if err := put(ctx, sqlTx, userID, store.RecurringRules, b.Rule.ID, *b.Rule); err != nil {
			return fmt.Errorf("Commit: %w", err)
		}
	}
	for _, tx := range b.Transactions {
		if err := put(ctx, sqlTx, userID, store.Transactions, tx.ID, tx); err != nil {
			return fmt.Errorf("Commit: %w", err)
		}
	}
	for _, id := range b.DeleteTransactions {
		if err := remove(ctx, sqlTx, userID, store.Transactions, id); err != nil {
			return fmt.Errorf("Commit: %w", err)
		}
	}
	for _, a := range b.Accounts {
		if err := put(ctx, sqlTx, userID, store.Accounts, a.ID, a); err != nil {
			return fmt.Errorf("Commit: %w", err)
		}
	}
	for _, l := range b.Loans {
		if err := put(ctx, sqlTx, userID, store.Loans, l.ID, l); err != nil {
			return fmt.Errorf("Commit: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("Commit: commit: %w", err)
	}
	return nil
}

// ListLoans implements store.Store.
func (s *Store) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	return list[domain.Loan](ctx, s.db, userID, store.Loans)
}

// GetLoan implements store.Store.
func (s *Store) GetLoan(ctx context.Context, userID, id string) (domain.Loan, error) {
	return get[domain.Loan](ctx, s.db, userID, store.Loans, id)
}

// SaveLoan implements store.Store.
func (s *Store) SaveLoan(ctx context.Context, userID string, l domain.Loan) error {
	return put(ctx, s.db, userID, store.Loans, l.ID, l)
}

// DeleteLoan implements store.Store.
func (s *Store) DeleteLoan(ctx context.Context, userID, id string) error {
	return s.remove(ctx, userID, store.Loans, id)
}

// PurgeUser implements store.Purger.
func (s *Store) PurgeUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("PurgeUser: %w", err)
	}
	return nil
}

// Ensure Store implements the store interfaces.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Purger = (*Store)(nil)
)
