package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

const loanColumns = `
	user_id,
	loan_id,
	loan_name,
	lender,
	amount,
	interest_rate,
	due_date,
	account_id,
	notes,
	status,
	remaining_amount,
	last_payment_date,
	last_payment_amount,
	created_ts`

// ListLoans implements store.Store.
func (r *Repository) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, loan_id`, loanColumns, r.table(loansTable))

	rows, err := query[LoanRow](ctx, r, sql, []bigquery.QueryParameter{{Name: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("ListLoans: %w", err)
	}
	out := make([]domain.Loan, len(rows))
	for i, row := range rows {
		out[i] = row.Loan()
	}
	return out, nil
}

// GetLoan implements store.Store.
func (r *Repository) GetLoan(ctx context.Context, userID, id string) (domain.Loan, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id AND loan_id = @id
		LIMIT 1`, loanColumns, r.table(loansTable))

	rows, err := query[LoanRow](ctx, r, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("GetLoan: %w", err)
	}
	if len(rows) == 0 {
		return domain.Loan{}, fmt.Errorf("GetLoan: loan %s: %w", id, store.ErrNotFound)
	}
	return rows[0].Loan(), nil
}

// SaveLoan implements store.Store.
func (r *Repository) SaveLoan(ctx context.Context, userID string, l domain.Loan) error {
	if err := r.upsert(ctx, loansTable, loanKeys, loanRowOf(userID, l).params()); err != nil {
		return fmt.Errorf("SaveLoan: %w", err)
	}
	return nil
}

// DeleteLoan implements store.Store.
func (r *Repository) DeleteLoan(ctx context.Context, userID, id string) error {
	if err := r.remove(ctx, loansTable, "loan_id", userID, id); err != nil {
		return fmt.Errorf("DeleteLoan: %w", err)
	}
	return nil
}
