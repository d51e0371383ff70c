package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	UserID          string     `bigquery:"user_id"`        // REQUIRED
	TransactionID   string     `bigquery:"transaction_id"` // REQUIRED
	TransactionType string     `bigquery:"transaction_type"`
	Amount          *big.Rat   `bigquery:"amount"` // NUMERIC, always positive
	Description     string     `bigquery:"description"`
	AccountID       string     `bigquery:"account_id"`
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	CategoryName bigquery.NullString `bigquery:"category_name"`
	IncomeSource bigquery.NullString `bigquery:"income_source"`
	LoanID       bigquery.NullString `bigquery:"loan_id"`
	LoanName     bigquery.NullString `bigquery:"loan_name"`
	RecurringID  bigquery.NullString `bigquery:"recurring_id"`
	Notes        bigquery.NullString `bigquery:"notes"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

var transactionKeys = []string{"user_id", "transaction_id"}

func transactionRowOf(userID string, tx domain.Transaction) TransactionRow {
	return TransactionRow{
		UserID:          userID,
		TransactionID:   tx.ID,
		TransactionType: string(tx.Type),
		Amount:          ratOf(tx.Amount),
		Description:     tx.Description,
		AccountID:       tx.Account,
		TransactionDate: tx.Date,
		CategoryName:    nullString(tx.Category),
		IncomeSource:    nullString(tx.IncomeSource),
		LoanID:          nullString(tx.LoanID),
		LoanName:        nullString(tx.LoanName),
		RecurringID:     nullString(tx.RecurringID),
		Notes:           nullString(tx.Notes),
		CreatedTS:       tx.CreatedAt,
	}
}

// Transaction converts the row to a domain value.
func (r TransactionRow) Transaction() domain.Transaction {
	return domain.Transaction{
		ID:           r.TransactionID,
		Type:         domain.TransactionType(r.TransactionType),
		Amount:       decimalOf(r.Amount),
		Description:  r.Description,
		Category:     r.CategoryName.StringVal,
		IncomeSource: r.IncomeSource.StringVal,
		Account:      r.AccountID,
		Date:         r.TransactionDate,
		LoanID:       r.LoanID.StringVal,
		LoanName:     r.LoanName.StringVal,
		RecurringID:  r.RecurringID.StringVal,
		Notes:        r.Notes.StringVal,
		CreatedAt:    r.CreatedTS,
	}
}

func (r TransactionRow) params() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "user_id", Value: r.UserID},
		{Name: "transaction_id", Value: r.TransactionID},
		{Name: "transaction_type", Value: r.TransactionType},
		{Name: "amount", Value: r.Amount},
		{Name: "description", Value: r.Description},
		{Name: "account_id", Value: r.AccountID},
		{Name: "transaction_date", Value: r.TransactionDate},
		{Name: "category_name", Value: r.CategoryName},
		{Name: "income_source", Value: r.IncomeSource},
		{Name: "loan_id", Value: r.LoanID},
		{Name: "loan_name", Value: r.LoanName},
		{Name: "recurring_id", Value: r.RecurringID},
		{Name: "notes", Value: r.Notes},
		{Name: "created_ts", Value: r.CreatedTS},
	}
}
