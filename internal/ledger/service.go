// Package ledger runs the ledger for one user at a time. It loads snapshots
// from a store.Store, feeds them to the pure calculations in finance,
// recurring and loans, and writes the results back.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/logger"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

// ErrValidation marks errors caused by bad input. The wrapped error is
// usually a validate.Errors.
var ErrValidation = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Service is safe for concurrent use. Writes for the same user are
// serialized.
type Service struct {
	store store.Store
	clock dates.Clock
	log   zerolog.Logger
	newID func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithIDs replaces the uuid generator.
func WithIDs(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// NewService wires a service over st. clock decides what "today" is.
func NewService(st store.Store, clock dates.Clock, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store: st,
		clock: clock,
		log:   log,
		newID: uuid.NewString,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes read-modify-write sequences for one user.
func (s *Service) lock(userID string) func() {
	s.mu.Lock()
	m, ok := s.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[userID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Service) window() dates.Window {
	return dates.From(s.clock)
}

// logFor returns the request logger, or the service's, tagged with userID.
func (s *Service) logFor(ctx context.Context, userID string) *zerolog.Logger {
	base := s.log
	if l, ok := ctx.Value(logger.LoggerKey).(zerolog.Logger); ok {
		base = l
	}
	l := logger.WithUser(base, userID)
	return &l
}

// Users lists every user with stored data.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("Users: %w", err)
	}
	return users, nil
}

// Snapshot loads every collection of the user.
func (s *Service) Snapshot(ctx context.Context, userID string) (domain.Ledger, error) {
	l := domain.Ledger{UserID: userID}
	var err error

	if l.Accounts, err = s.store.ListAccounts(ctx, userID); err != nil {
		return l, fmt.Errorf("Snapshot: listing accounts: %w", err)
	}
	if l.Transactions, err = s.store.ListTransactions(ctx, userID); err != nil {
		return l, fmt.Errorf("Snapshot: listing transactions: %w", err)
	}
	if l.Budgets, err = s.store.ListBudgets(ctx, userID); err != nil {
		return l, fmt.Errorf("Snapshot: listing budgets: %w", err)
	}
	if l.RecurringRules, err = s.store.ListRecurringRules(ctx, userID); err != nil {
		return l, fmt.Errorf("Snapshot: listing recurring rules: %w", err)
	}
	if l.Loans, err = s.store.ListLoans(ctx, userID); err != nil {
		return l, fmt.Errorf("Snapshot: listing loans: %w", err)
	}
	return l, nil
}

// Restore replaces the user's data with snapshot. Stores that cannot purge
// have the snapshot written over their existing documents.
func (s *Service) Restore(ctx context.Context, userID string, snapshot domain.Ledger) error {
	unlock := s.lock(userID)
	defer unlock()

	log := s.logFor(ctx, userID)

	if p, ok := s.store.(store.Purger); ok {
		if err := p.PurgeUser(ctx, userID); err != nil {
			return fmt.Errorf("Restore: purging: %w", err)
		}
	} else {
		log.Warn().Msg("Store cannot purge, restoring on top of existing data")
	}

	for _, a := range snapshot.Accounts {
		if err := s.store.SaveAccount(ctx, userID, a); err != nil {
			return fmt.Errorf("Restore: account %s: %w", a.ID, err)
		}
	}
	for _, tx := range snapshot.Transactions {
		if err := s.store.SaveTransaction(ctx, userID, tx); err != nil {
			return fmt.Errorf("Restore: transaction %s: %w", tx.ID, err)
		}
	}
	for _, b := range snapshot.Budgets {
		if err := s.store.SaveBudget(ctx, userID, b); err != nil {
			return fmt.Errorf("Restore: budget %s: %w", b.Category, err)
		}
	}
	for _, r := range snapshot.RecurringRules {
		if err := s.store.SaveRecurringRule(ctx, userID, r); err != nil {
			return fmt.Errorf("Restore: recurring rule %s: %w", r.ID, err)
		}
	}
	for _, l := range snapshot.Loans {
		if err := s.store.SaveLoan(ctx, userID, l); err != nil {
			return fmt.Errorf("Restore: loan %s: %w", l.ID, err)
		}
	}

	log.Info().
		Int("accounts", len(snapshot.Accounts)).
		Int("transactions", len(snapshot.Transactions)).
		Int("recurring", len(snapshot.RecurringRules)).
		Int("loans", len(snapshot.Loans)).
		Msg("Ledger restored")
	return nil
}

// Watch calls onChange for every write to the user's ledger until ctx is
// done. It returns false when the store cannot publish changes.
func (s *Service) Watch(ctx context.Context, userID string, onChange func(store.Change)) bool {
	n, ok := s.store.(store.Notifier)
	if !ok {
		return false
	}
	ch, cancel := n.Subscribe(userID)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-ch:
				if !ok {
					return
				}
				onChange(c)
			}
		}
	}()
	return true
}
