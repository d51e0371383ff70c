package finance

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryAmount is one slice of the expense breakdown.
type CategoryAmount struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// CategoryBreakdown sums expenses by category in order of first appearance.
func CategoryBreakdown(txs []domain.Transaction) []CategoryAmount {
	out := []CategoryAmount{}
	pos := make(map[string]int)
	for _, tx := range txs {
		if tx.Type != domain.TypeExpense {
			continue
		}
		i, ok := pos[tx.Category]
		if !ok {
			i = len(out)
			pos[tx.Category] = i
			out = append(out, CategoryAmount{Name: tx.Category})
		}
		out[i].Value = out[i].Value.Add(tx.Amount)
	}
	for i := range out {
		out[i].Value = out[i].Value.Round(2)
	}
	return out
}

// DayFlow is one point of the daily cash-flow series.
type DayFlow struct {
	Day     string          `json:"day"`
	Date    civil.Date      `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// DailyCashFlow returns one entry per day of the current month, including
// days without activity. Only income and expense transactions are counted.
func DailyCashFlow(txs []domain.Transaction, w dates.Window) []DayFlow {
	start := w.MonthStart()
	out := make([]DayFlow, w.DaysInMonth())
	for i := range out {
		out[i] = DayFlow{Day: fmt.Sprint(i + 1), Date: start.AddDays(i)}
	}

	for _, tx := range txs {
		if !w.InCurrentMonth(tx.Date) {
			continue
		}
		bucket := &out[tx.Date.Day-1]
		switch tx.Type {
		case domain.TypeIncome:
			bucket.Income = bucket.Income.Add(tx.Amount)
		case domain.TypeExpense:
			bucket.Expense = bucket.Expense.Add(tx.Amount)
		}
	}
	for i := range out {
		out[i].Net = out[i].Income.Sub(out[i].Expense)
	}
	return out
}
