package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// AccountRow is one row of the accounts table.
type AccountRow struct {
	UserID      string    `bigquery:"user_id"`    // REQUIRED
	AccountID   string    `bigquery:"account_id"` // REQUIRED
	AccountName string    `bigquery:"account_name"`
	AccountType string    `bigquery:"account_type"`
	Balance     *big.Rat  `bigquery:"balance"`    // NUMERIC
	CreatedTS   time.Time `bigquery:"created_ts"` // REQUIRED
}

var accountKeys = []string{"user_id", "account_id"}

func accountRowOf(userID string, a domain.Account) AccountRow {
	return AccountRow{
		UserID:      userID,
		AccountID:   a.ID,
		AccountName: a.Name,
		AccountType: string(a.Type),
		Balance:     ratOf(a.Balance),
		CreatedTS:   a.CreatedAt,
	}
}

// Account converts the row to a domain value.
func (r AccountRow) Account() domain.Account {
	return domain.Account{
		ID:        r.AccountID,
		Name:      r.AccountName,
		Type:      domain.AccountType(r.AccountType),
		Balance:   decimalOf(r.Balance),
		CreatedAt: r.CreatedTS,
	}
}

func (r AccountRow) params() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "user_id", Value: r.UserID},
		{Name: "account_id", Value: r.AccountID},
		{Name: "account_name", Value: r.AccountName},
		{Name: "account_type", Value: r.AccountType},
		{Name: "balance", Value: r.Balance},
		{Name: "created_ts", Value: r.CreatedTS},
	}
}
