package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType determines the direction of a transaction's balance effect.
type TransactionType string

const (
	TypeIncome      TransactionType = "income"
	TypeExpense     TransactionType = "expense"
	TypeLoan        TransactionType = "loan"
	TypeLoanPayment TransactionType = "loan-payment"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeLoan, TypeLoanPayment:
		return true
	}
	return false
}

// Credits reports whether the type increases the account balance.
func (t TransactionType) Credits() bool {
	return t == TypeIncome || t == TypeLoan
}

// Debits reports whether the type decreases the account balance.
func (t TransactionType) Debits() bool {
	return t == TypeExpense || t == TypeLoanPayment
}

// Transaction is one ledger entry. Amount is stored positive; the direction
// comes from Type.
type Transaction struct {
	ID           string          `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category,omitempty"`
	IncomeSource string          `json:"income_source,omitempty"`
	Account      string          `json:"account"`
	Date         civil.Date      `json:"date"` // YYYY-MM-DD, no time component

	// Set on loan-payment transactions derived from a loan.
	LoanID   string `json:"loan_id,omitempty"`
	LoanName string `json:"loan_name,omitempty"`

	// Set on transactions materialized from a recurring rule.
	RecurringID string `json:"recurring_id,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Effect returns the signed contribution of the transaction to its account
// balance. Unknown types contribute nothing.
func (t Transaction) Effect() decimal.Decimal {
	switch {
	case t.Type.Credits():
		return t.Amount
	case t.Type.Debits():
		return t.Amount.Neg()
	}
	return decimal.Zero
}
