package finance

import (
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// BudgetProgress compares one category's spend this month with its limit.
// Percentage is capped at 100; Spent is not.
type BudgetProgress struct {
	Category   string          `json:"category"`
	Spent      decimal.Decimal `json:"spent"`
	Limit      decimal.Decimal `json:"limit"`
	Percentage decimal.Decimal `json:"percentage"`
}

// EvaluateBudgets returns progress for each budget, in the order given.
// A zero limit reports 0 percent.
func EvaluateBudgets(budgets []domain.Budget, txs []domain.Transaction, w dates.Window) []BudgetProgress {
	spent := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type == domain.TypeExpense && w.InCurrentMonth(tx.Date) {
			spent[tx.Category] = spent[tx.Category].Add(tx.Amount)
		}
	}

	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		p := BudgetProgress{Category: b.Category, Spent: spent[b.Category], Limit: b.Limit}
		if b.Limit.IsPositive() {
			p.Percentage = decimal.Min(p.Spent.Div(b.Limit).Mul(hundred), hundred).Round(2)
		}
		out = append(out, p)
	}
	return out
}
