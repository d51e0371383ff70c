package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// LoanRow is one row of the loans table.
type LoanRow struct {
	UserID       string              `bigquery:"user_id"` // REQUIRED
	LoanID       string              `bigquery:"loan_id"` // REQUIRED
	LoanName     string              `bigquery:"loan_name"`
	Lender       bigquery.NullString `bigquery:"lender"`
	Amount       *big.Rat            `bigquery:"amount"`
	InterestRate *big.Rat            `bigquery:"interest_rate"`
	DueDate      bigquery.NullDate   `bigquery:"due_date"`
	AccountID    string              `bigquery:"account_id"`
	Notes        bigquery.NullString `bigquery:"notes"`

	Status            string            `bigquery:"status"`
	RemainingAmount   *big.Rat          `bigquery:"remaining_amount"`
	LastPaymentDate   bigquery.NullDate `bigquery:"last_payment_date"`
	LastPaymentAmount *big.Rat          `bigquery:"last_payment_amount"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

var loanKeys = []string{"user_id", "loan_id"}

func loanRowOf(userID string, l domain.Loan) LoanRow {
	return LoanRow{
		UserID:            userID,
		LoanID:            l.ID,
		LoanName:          l.Name,
		Lender:            nullString(l.Lender),
		Amount:            ratOf(l.Amount),
		InterestRate:      ratOf(l.InterestRate),
		DueDate:           nullDate(l.DueDate),
		AccountID:         l.Account,
		Notes:             nullString(l.Notes),
		Status:            string(l.Status),
		RemainingAmount:   ratOf(l.RemainingAmount),
		LastPaymentDate:   nullDate(l.LastPaymentDate),
		LastPaymentAmount: ratOf(l.LastPaymentAmount),
		CreatedTS:         l.CreatedAt,
	}
}

// Loan converts the row to a domain value.
func (r LoanRow) Loan() domain.Loan {
	return domain.Loan{
		ID:                r.LoanID,
		Name:              r.LoanName,
		Lender:            r.Lender.StringVal,
		Amount:            decimalOf(r.Amount),
		InterestRate:      decimalOf(r.InterestRate),
		DueDate:           datePtr(r.DueDate),
		Account:           r.AccountID,
		Notes:             r.Notes.StringVal,
		Status:            domain.LoanStatus(r.Status),
		RemainingAmount:   decimalOf(r.RemainingAmount),
		LastPaymentDate:   datePtr(r.LastPaymentDate),
		LastPaymentAmount: decimalOf(r.LastPaymentAmount),
		CreatedAt:         r.CreatedTS,
	}
}

func (r LoanRow) params() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "user_id", Value: r.UserID},
		{Name: "loan_id", Value: r.LoanID},
		{Name: "loan_name", Value: r.LoanName},
		{Name: "lender", Value: r.Lender},
		{Name: "amount", Value: r.Amount},
		{Name: "interest_rate", Value: r.InterestRate},
		{Name: "due_date", Value: r.DueDate},
		{Name: "account_id", Value: r.AccountID},
		{Name: "notes", Value: r.Notes},
		{Name: "status", Value: r.Status},
		{Name: "remaining_amount", Value: r.RemainingAmount},
		{Name: "last_payment_date", Value: r.LastPaymentDate},
		{Name: "last_payment_amount", Value: r.LastPaymentAmount},
		{Name: "created_ts", Value: r.CreatedTS},
	}
}
