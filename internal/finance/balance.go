// Package finance derives view state from a ledger snapshot: running
// balances, dashboard metrics, breakdowns, filtered views and budget
// progress. Every function is pure and leaves its inputs untouched.
package finance

import (
	"sort"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// BalancedTransaction is a transaction annotated with the balance of its
// account immediately after it was applied.
type BalancedTransaction struct {
	domain.Transaction
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// CurrentBalances indexes the authoritative balance of each account by ID.
func CurrentBalances(accounts []domain.Account) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		out[a.ID] = a.Balance
	}
	return out
}

type indexed struct {
	idx int
	tx  domain.Transaction
}

// newestFirst orders by date descending. Same-day entries keep input order.
func newestFirst(items []indexed) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.tx.Date != b.tx.Date {
			return a.tx.Date.After(b.tx.Date)
		}
		return a.idx < b.idx
	})
}

// ReconstructBalances walks each account's transactions from newest to
// oldest starting at the account's current balance, assigning the running
// value and then undoing the transaction's effect. Accounts missing from
// balances start at zero. The result is ordered newest first.
func ReconstructBalances(txs []domain.Transaction, balances map[string]decimal.Decimal) []BalancedTransaction {
	if len(txs) == 0 {
		return []BalancedTransaction{}
	}

	partitions := make(map[string][]indexed)
	var order []string
	for i, tx := range txs {
		if _, ok := partitions[tx.Account]; !ok {
			order = append(order, tx.Account)
		}
		partitions[tx.Account] = append(partitions[tx.Account], indexed{idx: i, tx: tx})
	}

	all := make([]indexed, 0, len(txs))
	after := make([]decimal.Decimal, len(txs))
	for _, account := range order {
		part := partitions[account]
		newestFirst(part)

		running := balances[account] // zero value when absent
		for _, it := range part {
			after[it.idx] = running
			running = running.Sub(it.tx.Effect())
		}
		all = append(all, part...)
	}

	newestFirst(all)
	out := make([]BalancedTransaction, len(all))
	for i, it := range all {
		out[i] = BalancedTransaction{Transaction: it.tx, BalanceAfter: after[it.idx]}
	}
	return out
}

// ReconstructAccount runs ReconstructBalances over the transactions of a
// single account.
func ReconstructAccount(txs []domain.Transaction, account domain.Account) []BalancedTransaction {
	var scoped []domain.Transaction
	for _, tx := range txs {
		if tx.Account == account.ID {
			scoped = append(scoped, tx)
		}
	}
	return ReconstructBalances(scoped, map[string]decimal.Decimal{account.ID: account.Balance})
}

// OpeningBalance returns the balance an account had before its oldest
// transaction in the reconstructed list.
func OpeningBalance(rows []BalancedTransaction, account string) (decimal.Decimal, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Account == account {
			return rows[i].BalanceAfter.Sub(rows[i].Effect()), true
		}
	}
	return decimal.Zero, false
}
