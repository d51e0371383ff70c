// Package store defines the per-user persistence contract of the ledger.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

var (
	// ErrNotFound is returned when an entity does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrStaleRule is returned by Commit when the batch's rule no longer has
	// the expected next occurrence.
	ErrStaleRule = errors.New("recurring rule changed since it was read")
)

// Collection names a per-user document collection.
type Collection string

const (
	Accounts       Collection = "accounts"
	Transactions   Collection = "transactions"
	Budgets        Collection = "budgets"
	RecurringRules Collection = "recurring"
	Loans          Collection = "loans"
)

// Collections lists every collection in load order.
var Collections = []Collection{Accounts, Transactions, Budgets, RecurringRules, Loans}

// Store persists ledger entities. Every method is scoped to one user and
// lists return entities in insertion order.
type Store interface {
	ListUsers(ctx context.Context) ([]string, error)

	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, userID, id string) (domain.Account, error)
	SaveAccount(ctx context.Context, userID string, a domain.Account) error
	DeleteAccount(ctx context.Context, userID, id string) error

	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (domain.Transaction, error)
	SaveTransaction(ctx context.Context, userID string, tx domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	SaveBudget(ctx context.Context, userID string, b domain.Budget) error
	DeleteBudget(ctx context.Context, userID, category string) error

	ListRecurringRules(ctx context.Context, userID string) ([]domain.RecurringRule, error)
	GetRecurringRule(ctx context.Context, userID, id string) (domain.RecurringRule, error)
	SaveRecurringRule(ctx context.Context, userID string, r domain.RecurringRule) error
	DeleteRecurringRule(ctx context.Context, userID, id string) error

	// Commit applies every write of b or none of them.
	Commit(ctx context.Context, userID string, b Batch) error

	ListLoans(ctx context.Context, userID string) ([]domain.Loan, error)
	GetLoan(ctx context.Context, userID, id string) (domain.Loan, error)
	SaveLoan(ctx context.Context, userID string, l domain.Loan) error
	DeleteLoan(ctx context.Context, userID, id string) error
}

// Batch is a group of writes that Commit applies as one unit. A transaction
// and the account balances it moves always travel in the same batch.
type Batch struct {
	// Rule, when set, is stored only if the stored rule exists and its
	// NextOccurrence equals ExpectedNext. Otherwise Commit fails with
	// ErrNotFound or ErrStaleRule and nothing is written.
	Rule         *domain.RecurringRule
	ExpectedNext *civil.Date

	Transactions []domain.Transaction
	// DeleteTransactions must all exist, or Commit fails with ErrNotFound.
	DeleteTransactions []string
	Accounts           []domain.Account
	Loans              []domain.Loan
}

// Purger is implemented by stores that can drop all of a user's documents,
// used before restoring a snapshot.
type Purger interface {
	PurgeUser(ctx context.Context, userID string) error
}

// Op is the kind of change made to a document.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Change describes one write to a collection.
type Change struct {
	UserID     string     `json:"user_id"`
	Collection Collection `json:"collection"`
	ID         string     `json:"id"`
	Op         Op         `json:"op"`
}

// Notifier is implemented by stores that can push change notifications.
// Callers must invoke cancel when they stop reading.
type Notifier interface {
	Subscribe(userID string) (<-chan Change, func())
}

// SameOccurrence reports whether two optional dates are equal.
func SameOccurrence(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
