package finance

import (
	"testing"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// Wednesday 2024-06-12; week starts Monday 2024-06-10.
var testWindow = dates.WindowAt(time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC))

func TestCalculateMetrics(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc1", Balance: dec("1000.50")},
		{ID: "acc2", Balance: dec("-200.25")},
	}
	txs := []domain.Transaction{
		income("salary", "3000", "2024-06-01"),
		income("old-salary", "3000", "2024-05-01"),
		expense("today", "12.50", "2024-06-12", "Dining"),
		expense("monday", "20", "2024-06-10", "Groceries"),
		expense("sunday", "30", "2024-06-09", "Groceries"),
		expense("may", "27.50", "2024-05-20", "Rent"),
		expense("too-old", "1000", "2024-05-13", "Rent"),
		expense("future", "5", "2024-06-20", "Other"),
		tx("loan", domain.TypeLoan, "500", "2024-06-12", "acc1"),
		tx("repay", domain.TypeLoanPayment, "50", "2024-06-12", "acc1"),
	}

	m := CalculateMetrics(accounts, txs, testWindow)

	assertDecimal(t, "NetWorth", m.NetWorth, "800.25")
	assertDecimal(t, "MonthlyIncome", m.MonthlyIncome, "3000")
	assertDecimal(t, "MonthlyExpenses", m.MonthlyExpenses, "67.50")
	assertDecimal(t, "DailyExpenses", m.DailyExpenses, "12.50")
	assertDecimal(t, "WeeklyExpenses", m.WeeklyExpenses, "32.50")
	// 12.50 + 20 + 30 + 27.50 over a fixed 30-day denominator
	assertDecimal(t, "AvgDailyExpense", m.AvgDailyExpense, "3.00")
	assertDecimal(t, "SavingsRate", m.SavingsRate, "97.75")
}

func TestCalculateMetrics_Empty(t *testing.T) {
	m := CalculateMetrics(nil, nil, testWindow)
	for name, v := range map[string]decimal.Decimal{
		"NetWorth":        m.NetWorth,
		"MonthlyIncome":   m.MonthlyIncome,
		"AvgDailyExpense": m.AvgDailyExpense,
		"SavingsRate":     m.SavingsRate,
	} {
		if !v.IsZero() {
			t.Errorf("%s = %s, want 0", name, v)
		}
	}
}

func TestSavingsRate(t *testing.T) {
	tests := []struct {
		name     string
		income   string
		expenses string
		want     string
	}{
		{"no income", "0", "50", "0"},
		{"negative income", "-10", "0", "0"},
		{"half saved", "1000", "500", "50"},
		{"nothing spent", "1000", "0", "100"},
		{"overspent clamps", "100", "500", "-100"},
		{"exactly double", "100", "200", "-100"},
		{"rounded", "3", "1", "66.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SavingsRate(dec(tt.income), dec(tt.expenses))
			assertDecimal(t, "SavingsRate", got, tt.want)
		})
	}
}

func TestSavingsRate_Bounded(t *testing.T) {
	values := []string{"0", "0.01", "1", "99.99", "1000", "123456.78"}
	for _, in := range values {
		for _, out := range values {
			r := SavingsRate(dec(in), dec(out))
			if r.GreaterThan(dec("100")) || r.LessThan(dec("-100")) {
				t.Errorf("SavingsRate(%s, %s) = %s out of bounds", in, out, r)
			}
		}
	}
}
