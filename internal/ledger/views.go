package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/finance"
	"github.com/dvloznov/pocket-pulse/internal/loans"
	"github.com/dvloznov/pocket-pulse/internal/recurring"
)

// Dashboard is the overview for the current month. Categories covers every
// expense on record; Summary covers the current month only.
type Dashboard struct {
	Month      string                   `json:"month"`
	Metrics    finance.Metrics          `json:"metrics"`
	Categories []finance.CategoryAmount `json:"categories"`
	CashFlow   []finance.DayFlow        `json:"cash_flow"`
	Budgets    []finance.BudgetProgress `json:"budgets"`
	Summary    finance.Summary          `json:"summary"`
	Loans      loans.Totals             `json:"loans"`
	Upcoming   []domain.RecurringRule   `json:"upcoming"`
	Recent     []TransactionRow         `json:"recent"`
}

// RecentCount is how many transactions the dashboard lists.
const RecentCount = 5

// Dashboard computes every dashboard figure from one snapshot and one clock
// reading.
func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	l, err := s.Snapshot(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("Dashboard: %w", err)
	}
	w := s.window()

	var month []domain.Transaction
	for _, tx := range l.Transactions {
		if w.InCurrentMonth(tx.Date) {
			month = append(month, tx)
		}
	}

	rows := annotate(l.Transactions, l.Accounts)
	if len(rows) > RecentCount {
		rows = rows[:RecentCount]
	}

	return Dashboard{
		Month:      w.Month(),
		Metrics:    finance.CalculateMetrics(l.Accounts, l.Transactions, w),
		Categories: finance.CategoryBreakdown(l.Transactions),
		CashFlow:   finance.DailyCashFlow(l.Transactions, w),
		Budgets:    finance.EvaluateBudgets(l.Budgets, l.Transactions, w),
		Summary:    finance.Summarize(month),
		Loans:      loans.Summarize(l.Loans),
		Upcoming:   recurring.Upcoming(l.RecurringRules, w.Today, recurring.UpcomingDays),
		Recent:     rows,
	}, nil
}

// TransactionRow is a balance-annotated transaction with its account's
// display name.
type TransactionRow struct {
	finance.BalancedTransaction
	AccountName string `json:"account_name"`
}

// TransactionList is a filtered view of the ledger, newest first.
type TransactionList struct {
	Transactions []TransactionRow `json:"transactions"`
	Summary      finance.Summary  `json:"summary"`
}

// annotate reconstructs balances over every transaction so that running
// balances stay correct when the list is later narrowed.
func annotate(txs []domain.Transaction, accounts []domain.Account) []TransactionRow {
	names := domain.AccountNames(accounts)
	balanced := finance.ReconstructBalances(txs, finance.CurrentBalances(accounts))
	rows := make([]TransactionRow, len(balanced))
	for i, b := range balanced {
		rows[i] = TransactionRow{BalancedTransaction: b, AccountName: domain.AccountName(names, b.Account)}
	}
	return rows
}

// Transactions returns the transactions matching search and f with their
// running balances, plus the summary of the matches.
func (s *Service) Transactions(ctx context.Context, userID, search string, f finance.Filters) (TransactionList, error) {
	l, err := s.Snapshot(ctx, userID)
	if err != nil {
		return TransactionList{}, fmt.Errorf("Transactions: %w", err)
	}

	matched := finance.FilterTransactions(l.Transactions, search, f)
	keep := make(map[string]bool, len(matched))
	for _, tx := range matched {
		keep[tx.ID] = true
	}

	rows := []TransactionRow{}
	for _, row := range annotate(l.Transactions, l.Accounts) {
		if keep[row.ID] {
			rows = append(rows, row)
		}
	}
	return TransactionList{Transactions: rows, Summary: finance.Summarize(matched)}, nil
}
