package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store/inmemory"
)

const user = "alice"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ids() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestService returns a service whose clock reads now (UTC).
func newTestService(t *testing.T, now string) (*Service, *inmemory.Store) {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", now)
	if err != nil {
		t.Fatalf("bad clock %q: %v", now, err)
	}
	st := inmemory.NewStore()
	return NewService(st, dates.Fixed(ts), zerolog.Nop(), WithIDs(ids())), st
}

func seedAccount(t *testing.T, st *inmemory.Store, id, name, balance string) {
	t.Helper()
	a := domain.Account{ID: id, Name: name, Type: domain.AccountChecking, Balance: dec(balance)}
	if err := st.SaveAccount(context.Background(), user, a); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
}

func seedTx(t *testing.T, st *inmemory.Store, tx domain.Transaction) {
	t.Helper()
	if err := st.SaveTransaction(context.Background(), user, tx); err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}
}

func expense(id, amount, date, category, account string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Type:        domain.TypeExpense,
		Amount:      dec(amount),
		Description: id,
		Category:    category,
		Account:     account,
		Date:        dates.MustParse(date),
	}
}

func balanceOf(t *testing.T, st *inmemory.Store, id string) decimal.Decimal {
	t.Helper()
	a, err := st.GetAccount(context.Background(), user, id)
	if err != nil {
		t.Fatalf("GetAccount(%s): %v", id, err)
	}
	return a.Balance
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}
