package finance

import (
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// Summary is the footer of an exported transaction list.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Count    int             `json:"count"`
}

// Summarize totals credits (income, loan) and debits (expense, loan-payment).
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{Count: len(txs)}
	for _, tx := range txs {
		switch {
		case tx.Type.Credits():
			s.Income = s.Income.Add(tx.Amount)
		case tx.Type.Debits():
			s.Expenses = s.Expenses.Add(tx.Amount)
		}
	}
	return s
}

// Net is income minus expenses.
func (s Summary) Net() decimal.Decimal {
	return s.Income.Sub(s.Expenses)
}
