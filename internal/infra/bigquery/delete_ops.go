package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// PurgeUser implements store.Purger. Transactions go first, accounts last.
func (r *Repository) PurgeUser(ctx context.Context, userID string) error {
	for _, table := range []string{transactionsTable, recurringTable, loansTable, budgetsTable, accountsTable} {
		if err := r.purgeTable(ctx, table, userID); err != nil {
			return fmt.Errorf("PurgeUser: deleting %s: %w", table, err)
		}
	}
	return nil
}

func (r *Repository) purgeTable(ctx context.Context, table, userID string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE user_id = @user_id`, r.table(table))
	return r.exec(ctx, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	})
}
