// Package bigquery is the BigQuery backend of store.Store. Each collection
// lives in its own table keyed by (user_id, <id>); writes are MERGE
// statements and reads are parameterized queries.
package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"google.golang.org/api/iterator"
)

const (
	accountsTable     = "accounts"
	transactionsTable = "transactions"
	budgetsTable      = "budgets"
	recurringTable    = "recurring_rules"
	loansTable        = "loans"
)

// Repository implements store.Store over a BigQuery dataset. It holds a
// shared client; call Close when done.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a client for projectID and targets datasetID.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified, backquoted table name.
func (r *Repository) table(name string) string {
	return tableRef(r.projectID, r.datasetID, name)
}

func tableRef(projectID, datasetID, name string) string {
	return "`" + projectID + "." + datasetID + "." + name + "`"
}

// exec runs a DML statement or script and waits for it to finish.
func (r *Repository) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// execCount runs a DML statement and returns the number of affected rows.
func (r *Repository) execCount(ctx context.Context, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// query reads every row of sql into T values.
func query[T any](ctx context.Context, r *Repository, sql string, params []bigquery.QueryParameter) ([]T, error) {
	q := r.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var rows []T
	for {
		var row T
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// mergeSQL builds an upsert of one parameterized row into table, matching on
// keys. Every other column is overwritten on match.
func mergeSQL(table string, columns, keys []string) string {
	return mergeSQLWithPrefix(table, "", columns, keys)
}

// mergeSQLWithPrefix is mergeSQL reading column c from parameter @<prefix>c.
func mergeSQLWithPrefix(table, prefix string, columns, keys []string) string {
	isKey := make(map[string]bool, len(keys))
	on := make([]string, len(keys))
	for i, k := range keys {
		isKey[k] = true
		on[i] = fmt.Sprintf("T.%s = S.%s", k, k)
	}

	selects := make([]string, len(columns))
	values := make([]string, len(columns))
	var sets []string
	for i, c := range columns {
		selects[i] = fmt.Sprintf("@%s%s AS %s", prefix, c, c)
		values[i] = "S." + c
		if !isKey[c] && c != "created_ts" {
			sets = append(sets, fmt.Sprintf("%s = S.%s", c, c))
		}
	}

	return fmt.Sprintf(`MERGE %s T
USING (SELECT %s) S
ON %s
WHEN MATCHED THEN UPDATE SET %s
WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)`,
		table,
		strings.Join(selects, ", "),
		strings.Join(on, " AND "),
		strings.Join(sets, ", "),
		strings.Join(columns, ", "),
		strings.Join(values, ", "),
	)
}

// columnsOf lists parameter names in order.
func columnsOf(params []bigquery.QueryParameter) []string {
	cols := make([]string, len(params))
	for i, p := range params {
		cols[i] = p.Name
	}
	return cols
}

func (r *Repository) upsert(ctx context.Context, table string, keys []string, params []bigquery.QueryParameter) error {
	return r.exec(ctx, mergeSQL(r.table(table), columnsOf(params), keys), params)
}

func (r *Repository) remove(ctx context.Context, table, idColumn, userID, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE user_id = @user_id AND %s = @id`, r.table(table), idColumn)
	n, err := r.execCount(ctx, sql, []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	return nil
}

// ListUsers implements store.Store. Users are discovered from accounts and
// recurring rules, the two collections the scheduler cares about.
func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	sql := fmt.Sprintf(`
		SELECT DISTINCT user_id FROM (
			SELECT user_id FROM %s
			UNION ALL
			SELECT user_id FROM %s
		)
		ORDER BY user_id`, r.table(accountsTable), r.table(recurringTable))

	rows, err := query[struct {
		UserID string `bigquery:"user_id"`
	}](ctx, r, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.UserID
	}
	return out, nil
}

// Ensure Repository implements the store interfaces.
var (
	_ store.Store  = (*Repository)(nil)
	_ store.Purger = (*Repository)(nil)
)
