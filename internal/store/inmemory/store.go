// Package inmemory is a process-local store.Store. It is safe for concurrent
// use; data is lost on restart.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

const subscriberBuffer = 32

type row[T any] struct {
	seq uint64
	val T
}

// table keeps insertion order so listings are stable.
type table[T any] map[string]row[T]

func (t table[T]) list() []T {
	rows := make([]row[T], 0, len(t))
	for _, r := range t {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = detach(r.val)
	}
	return out
}

// detach copies the date pointers of rules and loans so values handed in or
// out never alias stored data.
func detach[T any](v T) T {
	switch x := any(v).(type) {
	case domain.RecurringRule:
		x.EndDate = copyDate(x.EndDate)
		x.NextOccurrence = copyDate(x.NextOccurrence)
		x.LastCreated = copyDate(x.LastCreated)
		return any(x).(T)
	case domain.Loan:
		x.DueDate = copyDate(x.DueDate)
		x.LastPaymentDate = copyDate(x.LastPaymentDate)
		return any(x).(T)
	}
	return v
}

func copyDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

type userData struct {
	accounts     table[domain.Account]
	transactions table[domain.Transaction]
	budgets      table[domain.Budget]
	rules        table[domain.RecurringRule]
	loans        table[domain.Loan]
}

func newUserData() *userData {
	return &userData{
		accounts:     table[domain.Account]{},
		transactions: table[domain.Transaction]{},
		budgets:      table[domain.Budget]{},
		rules:        table[domain.RecurringRule]{},
		loans:        table[domain.Loan]{},
	}
}

// Store is an in-memory implementation of store.Store and store.Notifier.
type Store struct {
	mu    sync.RWMutex
	seq   uint64
	users map[string]*userData

	subMu   sync.Mutex
	nextSub int
	subs    map[string]map[int]chan store.Change
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*userData),
		subs:  make(map[string]map[int]chan store.Change),
	}
}

// user returns the user's data, creating it when create is set. Callers hold mu.
func (s *Store) user(userID string, create bool) *userData {
	u, ok := s.users[userID]
	if !ok && create {
		u = newUserData()
		s.users[userID] = u
	}
	return u
}

func put[T any](s *Store, t table[T], id string, v T) {
	v = detach(v)
	if existing, ok := t[id]; ok {
		t[id] = row[T]{seq: existing.seq, val: v}
		return
	}
	s.seq++
	t[id] = row[T]{seq: s.seq, val: v}
}

func listFor[T any](s *Store, userID string, pick func(*userData) table[T]) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.user(userID, false)
	if u == nil {
		return []T{}
	}
	return pick(u).list()
}

func getFor[T any](s *Store, userID, id string, pick func(*userData) table[T]) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	u := s.user(userID, false)
	if u == nil {
		return zero, false
	}
	r, ok := pick(u)[id]
	if !ok {
		return zero, false
	}
	return detach(r.val), true
}

func saveFor[T any](s *Store, userID, id string, v T, pick func(*userData) table[T]) error {
	if userID == "" || id == "" {
		return fmt.Errorf("user ID and entity ID are required")
	}
	s.mu.Lock()
	put(s, pick(s.user(userID, true)), id, v)
	s.mu.Unlock()
	return nil
}

func deleteFor[T any](s *Store, userID, id string, pick func(*userData) table[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID, false)
	if u == nil {
		return false
	}
	t := pick(u)
	if _, ok := t[id]; !ok {
		return false
	}
	delete(t, id)
	return true
}

func accounts(u *userData) table[domain.Account] { return u.accounts }
func transactions(u *userData) table[domain.Transaction] { return u.transactions }
func budgets(u *userData) table[domain.Budget] { return u.budgets }
func rules(u *userData) table[domain.RecurringRule] { return u.rules }
func loans(u *userData) table[domain.Loan] { return u.loans }

// ListUsers implements store.Store.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for id := range s.users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	return listFor(s, userID, accounts), nil
}

// GetAccount implements store.Store.
func (s *Store) GetAccount(ctx context.Context, userID, id string) (domain.Account, error) {
	a, ok := getFor(s, userID, id, accounts)
	if !ok {
		return a, fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	return a, nil
}

// SaveAccount implements store.Store.
func (s *Store) SaveAccount(ctx context.Context, userID string, a domain.Account) error {
	if err := saveFor(s, userID, a.ID, a, accounts); err != nil {
		return err
	}
	s.notify(userID, store.Accounts, a.ID, store.OpPut)
	return nil
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	if !deleteFor(s, userID, id, accounts) {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	s.notify(userID, store.Accounts, id, store.OpDelete)
	return nil
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return listFor(s, userID, transactions), nil
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (domain.Transaction, error) {
	tx, ok := getFor(s, userID, id, transactions)
	if !ok {
		return tx, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return tx, nil
}

// SaveTransaction implements store.Store.
func (s *Store) SaveTransaction(ctx context.Context, userID string, tx domain.Transaction) error {
	if err := saveFor(s, userID, tx.ID, tx, transactions); err != nil {
		return err
	}
	s.notify(userID, store.Transactions, tx.ID, store.OpPut)
	return nil
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	if !deleteFor(s, userID, id, transactions) {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	s.notify(userID, store.Transactions, id, store.OpDelete)
	return nil
}

// ListBudgets implements store.Store.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	return listFor(s, userID, budgets), nil
}

// SaveBudget implements store.Store. Budgets are keyed by category.
func (s *Store) SaveBudget(ctx context.Context, userID string, b domain.Budget) error {
	if err := saveFor(s, userID, b.Category, b, budgets); err != nil {
		return err
	}
	s.notify(userID, store.Budgets, b.Category, store.OpPut)
	return nil
}

// DeleteBudget implements store.Store.
func (s *Store) DeleteBudget(ctx context.Context, userID, category string) error {
	if !deleteFor(s, userID, category, budgets) {
		return fmt.Errorf("budget %s: %w", category, store.ErrNotFound)
	}
	s.notify(userID, store.Budgets, category, store.OpDelete)
	return nil
}

// ListRecurringRules implements store.Store.
func (s *Store) ListRecurringRules(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	return listFor(s, userID, rules), nil
}

// GetRecurringRule implements store.Store.
func (s *Store) GetRecurringRule(ctx context.Context, userID, id string) (domain.RecurringRule, error) {
	r, ok := getFor(s, userID, id, rules)
	if !ok {
		return r, fmt.Errorf("recurring rule %s: %w", id, store.ErrNotFound)
	}
	return r, nil
}

// SaveRecurringRule implements store.Store.
func (s *Store) SaveRecurringRule(ctx context.Context, userID string, r domain.RecurringRule) error {
	if err := saveFor(s, userID, r.ID, r, rules); err != nil {
		return err
	}
	s.notify(userID, store.RecurringRules, r.ID, store.OpPut)
	return nil
}

// DeleteRecurringRule implements store.Store.
func (s *Store) DeleteRecurringRule(ctx context.Context, userID, id string) error {
	if !deleteFor(s, userID, id, rules) {
		return fmt.Errorf("recurring rule %s: %w", id, store.ErrNotFound)
	}
	s.notify(userID, store.RecurringRules, id, store.OpDelete)
	return nil
}

// Commit implements store.Store. Every check runs before the first write and
// both happen under one lock.
func (s *Store) Commit(ctx context.Context, userID string, b store.Batch) error {
	if err := checkIDs(userID, b); err != nil {
		return err
	}

	s.mu.Lock()
	if err := checkBatch(s.user(userID, false), b); err != nil {
		s.mu.Unlock()
		return err
	}
	u := s.user(userID, true)
	if b.Rule != nil {
		put(s, u.rules, b.Rule.ID, *b.Rule)
	}
	for _, tx := range b.Transactions {
		put(s, u.transactions, tx.ID, tx)
	}
	for _, id := range b.DeleteTransactions {
		delete(u.transactions, id)
	}
	for _, a := range b.Accounts {
		put(s, u.accounts, a.ID, a)
	}
	for _, l := range b.Loans {
		put(s, u.loans, l.ID, l)
	}
	s.mu.Unlock()

	if b.Rule != nil {
		s.notify(userID, store.RecurringRules, b.Rule.ID, store.OpPut)
	}
	for _, tx := range b.Transactions {
		s.notify(userID, store.Transactions, tx.ID, store.OpPut)
	}
	for _, id := range b.DeleteTransactions {
		s.notify(userID, store.Transactions, id, store.OpDelete)
	}
	for _, a := range b.Accounts {
		s.notify(userID, store.Accounts, a.ID, store.OpPut)
	}
	for _, l := range b.Loans {
		s.notify(userID, store.Loans, l.ID, store.OpPut)
	}
	return nil
}

func checkIDs(userID string, b store.Batch) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if b.Rule != nil && b.Rule.ID == "" {
		return fmt.Errorf("recurring rule ID is required")
	}
	for _, tx := range b.Transactions {
		if tx.ID == "" {
			return fmt.Errorf("transaction ID is required")
		}
	}
	for _, a := range b.Accounts {
		if a.ID == "" {
			return fmt.Errorf("account ID is required")
		}
	}
	for _, l := range b.Loans {
		if l.ID == "" {
			return fmt.Errorf("loan ID is required")
		}
	}
	return nil
}

// checkBatch verifies the batch's preconditions against u, which may be nil.
// Callers hold mu.
func checkBatch(u *userData, b store.Batch) error {
	if b.Rule != nil {
		var (
			current row[domain.RecurringRule]
			ok      bool
		)
		if u != nil {
			current, ok = u.rules[b.Rule.ID]
		}
		if !ok {
			return fmt.Errorf("recurring rule %s: %w", b.Rule.ID, store.ErrNotFound)
		}
		if !store.SameOccurrence(current.val.NextOccurrence, b.ExpectedNext) {
			return fmt.Errorf("recurring rule %s: %w", b.Rule.ID, store.ErrStaleRule)
		}
	}
	for _, id := range b.DeleteTransactions {
		if u == nil {
			return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
		if _, ok := u.transactions[id]; !ok {
			return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
	}
	return nil
}

// ListLoans implements store.Store.
func (s *Store) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	return listFor(s, userID, loans), nil
}

// GetLoan implements store.Store.
func (s *Store) GetLoan(ctx context.Context, userID, id string) (domain.Loan, error) {
	l, ok := getFor(s, userID, id, loans)
	if !ok {
		return l, fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
	}
	return l, nil
}

// SaveLoan implements store.Store.
func (s *Store) SaveLoan(ctx context.Context, userID string, l domain.Loan) error {
	if err := saveFor(s, userID, l.ID, l, loans); err != nil {
		return err
	}
	s.notify(userID, store.Loans, l.ID, store.OpPut)
	return nil
}

// DeleteLoan implements store.Store.
func (s *Store) DeleteLoan(ctx context.Context, userID, id string) error {
	if !deleteFor(s, userID, id, loans) {
		return fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
	}
	s.notify(userID, store.Loans, id, store.OpDelete)
	return nil
}

// PurgeUser implements store.Purger.
func (s *Store) PurgeUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	return nil
}

// Subscribe implements store.Notifier. Slow subscribers miss changes rather
// than block writers.
func (s *Store) Subscribe(userID string) (<-chan store.Change, func()) {
	ch := make(chan store.Change, subscriberBuffer)

	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]chan store.Change)
	}
	s.subs[userID][id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs[userID], id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) notify(userID string, c store.Collection, id string, op store.Op) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	change := store.Change{UserID: userID, Collection: c, ID: id, Op: op}
	for _, ch := range s.subs[userID] {
		select {
		case ch <- change:
		default:
		}
	}
}

// Ensure Store implements the store interfaces.
var (
	_ store.Store    = (*Store)(nil)
	_ store.Notifier = (*Store)(nil)
	_ store.Purger   = (*Store)(nil)
)
