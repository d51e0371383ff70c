package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

const transactionColumns = `
	user_id,
	transaction_id,
	transaction_type,
	amount,
	description,
	account_id,
	transaction_date,
	category_name,
	income_source,
	loan_id,
	loan_name,
	recurring_id,
	notes,
	created_ts`

func toTransactions(rows []TransactionRow) []domain.Transaction {
	out := make([]domain.Transaction, len(rows))
	for i, row := range rows {
		out[i] = row.Transaction()
	}
	return out
}

// ListTransactions implements store.Store.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, transaction_id`, transactionColumns, r.table(transactionsTable))

	rows, err := query[TransactionRow](ctx, r, sql, []bigquery.QueryParameter{{Name: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return toTransactions(rows), nil
}

// GetTransaction implements store.Store.
func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id AND transaction_id = @id
		LIMIT 1`, transactionColumns, r.table(transactionsTable))

	rows, err := query[TransactionRow](ctx, r, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %w", err)
	}
	if len(rows) == 0 {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: transaction %s: %w", id, store.ErrNotFound)
	}
	return rows[0].Transaction(), nil
}

// SaveTransaction implements store.Store.
func (r *Repository) SaveTransaction(ctx context.Context, userID string, tx domain.Transaction) error {
	if err := r.upsert(ctx, transactionsTable, transactionKeys, transactionRowOf(userID, tx).params()); err != nil {
		return fmt.Errorf("SaveTransaction: %w", err)
	}
	return nil
}

// DeleteTransaction implements store.Store.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := r.remove(ctx, transactionsTable, "transaction_id", userID, id); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}
