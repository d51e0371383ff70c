package finance

import (
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// BalanceAdjustment is a signed change to apply to one account's balance.
type BalanceAdjustment struct {
	AccountID string
	Delta     decimal.Decimal
}

// ForCreate applies the new transaction's effect.
func ForCreate(tx domain.Transaction) []BalanceAdjustment {
	return []BalanceAdjustment{{AccountID: tx.Account, Delta: tx.Effect()}}
}

// ForDelete reverses the removed transaction's effect.
func ForDelete(tx domain.Transaction) []BalanceAdjustment {
	return []BalanceAdjustment{{AccountID: tx.Account, Delta: tx.Effect().Neg()}}
}

// ForEdit reverses the old effect and applies the new one. When the account
// is unchanged the two collapse into a single adjustment.
func ForEdit(old, updated domain.Transaction) []BalanceAdjustment {
	if old.Account == updated.Account {
		return []BalanceAdjustment{{AccountID: old.Account, Delta: updated.Effect().Sub(old.Effect())}}
	}
	return append(ForDelete(old), ForCreate(updated)...)
}

// ApplyAdjustments returns the accounts touched by adj with their new
// balances. Adjustments for unknown accounts are dropped.
func ApplyAdjustments(accounts []domain.Account, adj []BalanceAdjustment) []domain.Account {
	byID := make(map[string]int, len(accounts))
	for i, a := range accounts {
		byID[a.ID] = i
	}

	touched := make(map[string]*domain.Account)
	var order []string
	for _, a := range adj {
		i, ok := byID[a.AccountID]
		if !ok || a.Delta.IsZero() {
			continue
		}
		acc, seen := touched[a.AccountID]
		if !seen {
			cp := accounts[i]
			acc = &cp
			touched[a.AccountID] = acc
			order = append(order, a.AccountID)
		}
		acc.Balance = acc.Balance.Add(a.Delta)
	}

	out := make([]domain.Account, 0, len(order))
	for _, id := range order {
		out = append(out, *touched[id])
	}
	return out
}
