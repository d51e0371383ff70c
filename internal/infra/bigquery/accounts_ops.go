package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

const accountColumns = `user_id, account_id, account_name, account_type, balance, created_ts`

// ListAccounts implements store.Store.
func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, account_id`, accountColumns, r.table(accountsTable))

	rows, err := query[AccountRow](ctx, r, sql, []bigquery.QueryParameter{{Name: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	out := make([]domain.Account, len(rows))
	for i, row := range rows {
		out[i] = row.Account()
	}
	return out, nil
}

// GetAccount implements store.Store.
func (r *Repository) GetAccount(ctx context.Context, userID, id string) (domain.Account, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id AND account_id = @id
		LIMIT 1`, accountColumns, r.table(accountsTable))

	rows, err := query[AccountRow](ctx, r, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("GetAccount: %w", err)
	}
	if len(rows) == 0 {
		return domain.Account{}, fmt.Errorf("GetAccount: account %s: %w", id, store.ErrNotFound)
	}
	return rows[0].Account(), nil
}

// SaveAccount implements store.Store.
func (r *Repository) SaveAccount(ctx context.Context, userID string, a domain.Account) error {
	if err := r.upsert(ctx, accountsTable, accountKeys, accountRowOf(userID, a).params()); err != nil {
		return fmt.Errorf("SaveAccount: %w", err)
	}
	return nil
}

// DeleteAccount implements store.Store.
func (r *Repository) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := r.remove(ctx, accountsTable, "account_id", userID, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	return nil
}
