package finance

import (
	"testing"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(id string, typ domain.TransactionType, amount, date, account string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Type:        typ,
		Amount:      dec(amount),
		Description: id,
		Account:     account,
		Date:        dates.MustParse(date),
	}
}

func expense(id, amount, date, category string) domain.Transaction {
	t := tx(id, domain.TypeExpense, amount, date, "acc1")
	t.Category = category
	return t
}

func income(id, amount, date string) domain.Transaction {
	t := tx(id, domain.TypeIncome, amount, date, "acc1")
	t.IncomeSource = "Full-time Salary"
	return t
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}
