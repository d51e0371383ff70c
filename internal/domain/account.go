package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account. Credit accounts usually carry a
// negative balance.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

// Account holds the authoritative current balance, inclusive of every
// transaction that references it.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnknownAccountName is displayed for transactions whose account no longer exists.
const UnknownAccountName = "Unknown account"

// AccountNames maps account IDs to display names.
func AccountNames(accounts []Account) map[string]string {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names
}

// AccountName resolves id against names, falling back to UnknownAccountName.
func AccountName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownAccountName
}
