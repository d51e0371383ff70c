package finance

import (
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	minusHundred = decimal.NewFromInt(-100)
)

// Metrics are the dashboard headline figures.
type Metrics struct {
	NetWorth        decimal.Decimal `json:"net_worth"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	DailyExpenses   decimal.Decimal `json:"daily_expenses"`
	WeeklyExpenses  decimal.Decimal `json:"weekly_expenses"`
	AvgDailyExpense decimal.Decimal `json:"avg_daily_expense"`
	SavingsRate     decimal.Decimal `json:"savings_rate"`
}

// CalculateMetrics evaluates every figure against the single window w.
func CalculateMetrics(accounts []domain.Account, txs []domain.Transaction, w dates.Window) Metrics {
	var m Metrics
	for _, a := range accounts {
		m.NetWorth = m.NetWorth.Add(a.Balance)
	}

	var trailing decimal.Decimal
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			if w.InCurrentMonth(tx.Date) {
				m.MonthlyIncome = m.MonthlyIncome.Add(tx.Amount)
			}
		case domain.TypeExpense:
			if w.InCurrentMonth(tx.Date) {
				m.MonthlyExpenses = m.MonthlyExpenses.Add(tx.Amount)
			}
			if w.IsToday(tx.Date) {
				m.DailyExpenses = m.DailyExpenses.Add(tx.Amount)
			}
			if w.InCurrentWeek(tx.Date) {
				m.WeeklyExpenses = m.WeeklyExpenses.Add(tx.Amount)
			}
			if w.InTrailing(tx.Date, dates.TrailingDays) {
				trailing = trailing.Add(tx.Amount)
			}
		}
	}

	m.AvgDailyExpense = trailing.Div(decimal.NewFromInt(dates.TrailingDays)).Round(2)
	m.SavingsRate = SavingsRate(m.MonthlyIncome, m.MonthlyExpenses)
	return m
}

// SavingsRate is (income-expenses)/income*100, rounded to two places and
// clamped to [-100, 100]. Zero or negative income yields 0.
func SavingsRate(income, expenses decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	rate := income.Sub(expenses).Div(income).Mul(hundred).Round(2)
	switch {
	case rate.GreaterThan(hundred):
		return hundred
	case rate.LessThan(minusHundred):
		return minusHundred
	}
	return rate
}
