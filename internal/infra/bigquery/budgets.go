package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// BudgetRow is one row of the budgets table. Category is the key.
type BudgetRow struct {
	UserID       string    `bigquery:"user_id"`       // REQUIRED
	CategoryName string    `bigquery:"category_name"` // REQUIRED
	LimitAmount  *big.Rat  `bigquery:"limit_amount"`  // NUMERIC
	UpdatedTS    time.Time `bigquery:"updated_ts"`
}

var budgetKeys = []string{"user_id", "category_name"}

func (r BudgetRow) params() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "user_id", Value: r.UserID},
		{Name: "category_name", Value: r.CategoryName},
		{Name: "limit_amount", Value: r.LimitAmount},
		{Name: "updated_ts", Value: r.UpdatedTS},
	}
}

// ListBudgets implements store.Store.
func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	sql := fmt.Sprintf(`
		SELECT user_id, category_name, limit_amount, updated_ts FROM %s
		WHERE user_id = @user_id
		ORDER BY category_name`, r.table(budgetsTable))

	rows, err := query[BudgetRow](ctx, r, sql, []bigquery.QueryParameter{{Name: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	out := make([]domain.Budget, len(rows))
	for i, row := range rows {
		out[i] = domain.Budget{
			Category:  row.CategoryName,
			Limit:     decimalOf(row.LimitAmount),
			UpdatedAt: row.UpdatedTS,
		}
	}
	return out, nil
}

// SaveBudget implements store.Store.
func (r *Repository) SaveBudget(ctx context.Context, userID string, b domain.Budget) error {
	row := BudgetRow{
		UserID:       userID,
		CategoryName: b.Category,
		LimitAmount:  ratOf(b.Limit),
		UpdatedTS:    b.UpdatedAt,
	}
	if err := r.upsert(ctx, budgetsTable, budgetKeys, row.params()); err != nil {
		return fmt.Errorf("SaveBudget: %w", err)
	}
	return nil
}

// DeleteBudget implements store.Store.
func (r *Repository) DeleteBudget(ctx context.Context, userID, category string) error {
	if err := r.remove(ctx, budgetsTable, "category_name", userID, category); err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	return nil
}
