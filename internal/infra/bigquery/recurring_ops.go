package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

const recurringColumns = `
	user_id,
	rule_id,
	transaction_type,
	amount,
	description,
	category_name,
	income_source,
	account_id,
	frequency,
	start_date,
	end_date,
	next_occurrence,
	last_created,
	is_active,
	auto_create,
	created_ts`

// ListRecurringRules implements store.Store.
func (r *Repository) ListRecurringRules(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts, rule_id`, recurringColumns, r.table(recurringTable))

	rows, err := query[RecurringRuleRow](ctx, r, sql, []bigquery.QueryParameter{{Name: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("ListRecurringRules: %w", err)
	}
	out := make([]domain.RecurringRule, len(rows))
	for i, row := range rows {
		out[i] = row.Rule()
	}
	return out, nil
}

// GetRecurringRule implements store.Store.
func (r *Repository) GetRecurringRule(ctx context.Context, userID, id string) (domain.RecurringRule, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id AND rule_id = @id
		LIMIT 1`, recurringColumns, r.table(recurringTable))

	rows, err := query[RecurringRuleRow](ctx, r, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return domain.RecurringRule{}, fmt.Errorf("GetRecurringRule: %w", err)
	}
	if len(rows) == 0 {
		return domain.RecurringRule{}, fmt.Errorf("GetRecurringRule: recurring rule %s: %w", id, store.ErrNotFound)
	}
	return rows[0].Rule(), nil
}

// SaveRecurringRule implements store.Store.
func (r *Repository) SaveRecurringRule(ctx context.Context, userID string, rule domain.RecurringRule) error {
	if err := r.upsert(ctx, recurringTable, recurringKeys, recurringRowOf(userID, rule).params()); err != nil {
		return fmt.Errorf("SaveRecurringRule: %w", err)
	}
	return nil
}

// DeleteRecurringRule implements store.Store.
func (r *Repository) DeleteRecurringRule(ctx context.Context, userID, id string) error {
	if err := r.remove(ctx, recurringTable, "rule_id", userID, id); err != nil {
		return fmt.Errorf("DeleteRecurringRule: %w", err)
	}
	return nil
}
