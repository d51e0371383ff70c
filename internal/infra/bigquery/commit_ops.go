package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/store"
)

// Messages raised by the commit script, matched to map job errors back to
// store sentinels.
const (
	ruleMissingMessage = "recurring rule not found"
	ruleStaleMessage   = "recurring rule is stale"
	txMissingMessage   = "transaction not found"
)

// commitScript accumulates the statements and parameters of one
// multi-statement transaction. Row parameters get a p<N>_ prefix so rows of
// the same table do not collide.
type commitScript struct {
	guards []string
	writes []string
	params []bigquery.QueryParameter
	rows   int
}

func (c *commitScript) prefix() string {
	p := fmt.Sprintf("p%d_", c.rows)
	c.rows++
	return p
}

func (c *commitScript) merge(table string, keys []string, params []bigquery.QueryParameter) {
	prefix := c.prefix()
	c.writes = append(c.writes, mergeSQLWithPrefix(table, prefix, columnsOf(params), keys)+";")
	for _, p := range params {
		c.params = append(c.params, bigquery.QueryParameter{Name: prefix + p.Name, Value: p.Value})
	}
}

func (c *commitScript) sql() string {
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	for _, g := range c.guards {
		b.WriteString(g)
		b.WriteString("\n")
	}
	for _, w := range c.writes {
		b.WriteString(w)
		b.WriteString("\n")
	}
	b.WriteString("COMMIT TRANSACTION;")
	return b.String()
}

// buildCommit turns a batch into a script. Every guard runs before the first
// write; a RAISE aborts the transaction.
func (r *Repository) buildCommit(userID string, b store.Batch) (string, []bigquery.QueryParameter) {
	c := &commitScript{params: []bigquery.QueryParameter{{Name: "user_id", Value: userID}}}

	if b.Rule != nil {
		rules := r.table(recurringTable)
		c.params = append(c.params,
			bigquery.QueryParameter{Name: "rule_id", Value: b.Rule.ID},
			bigquery.QueryParameter{Name: "expected_next", Value: nullDate(b.ExpectedNext)},
		)
		c.guards = append(c.guards, fmt.Sprintf(`IF NOT EXISTS (SELECT 1 FROM %[1]s WHERE user_id = @user_id AND rule_id = @rule_id) THEN
  RAISE USING MESSAGE = '%[2]s';
END IF;
IF NOT EXISTS (
  SELECT 1 FROM %[1]s
  WHERE user_id = @user_id AND rule_id = @rule_id
    AND ((@expected_next IS NULL AND next_occurrence IS NULL) OR next_occurrence = @expected_next)
) THEN
  RAISE USING MESSAGE = '%[3]s';
END IF;`, rules, ruleMissingMessage, ruleStaleMessage))
		c.merge(rules, recurringKeys, recurringRowOf(userID, *b.Rule).params())
	}

	for _, tx := range b.Transactions {
		c.merge(r.table(transactionsTable), transactionKeys, transactionRowOf(userID, tx).params())
	}

	txTable := r.table(transactionsTable)
	for _, id := range b.DeleteTransactions {
		name := c.prefix() + "transaction_id"
		c.params = append(c.params, bigquery.QueryParameter{Name: name, Value: id})
		c.guards = append(c.guards, fmt.Sprintf(`IF NOT EXISTS (SELECT 1 FROM %s WHERE user_id = @user_id AND transaction_id = @%s) THEN
  RAISE USING MESSAGE = '%s';
END IF;`, txTable, name, txMissingMessage))
		c.writes = append(c.writes, fmt.Sprintf("DELETE FROM %s WHERE user_id = @user_id AND transaction_id = @%s;", txTable, name))
	}

	for _, a := range b.Accounts {
		c.merge(r.table(accountsTable), accountKeys, accountRowOf(userID, a).params())
	}
	for _, l := range b.Loans {
		c.merge(r.table(loansTable), loanKeys, loanRowOf(userID, l).params())
	}
	return c.sql(), c.params
}

// Commit implements store.Store as a BigQuery multi-statement transaction.
// The guards and every write either all apply or none do.
func (r *Repository) Commit(ctx context.Context, userID string, b store.Batch) error {
	script, params := r.buildCommit(userID, b)
	if err := r.exec(ctx, script, params); err != nil {
		return fmt.Errorf("Commit: %w", classifyCommitError(err))
	}
	return nil
}

func classifyCommitError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, ruleStaleMessage):
		return fmt.Errorf("%w: %v", store.ErrStaleRule, err)
	case strings.Contains(msg, ruleMissingMessage), strings.Contains(msg, txMissingMessage):
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return err
}
