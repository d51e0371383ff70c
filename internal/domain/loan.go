package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// LoanStatus flips to paid once the remaining amount reaches zero.
type LoanStatus string

const (
	LoanActive LoanStatus = "active"
	LoanPaid   LoanStatus = "paid"
)

// Loan tracks money owed and the payments made against it. Payments are
// debited from Account.
type Loan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Lender       string          `json:"lender,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"` // percent
	DueDate      *civil.Date     `json:"due_date,omitempty"`
	Account      string          `json:"account"`
	Notes        string          `json:"notes,omitempty"`

	Status            LoanStatus      `json:"status"`
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	LastPaymentDate   *civil.Date     `json:"last_payment_date,omitempty"`
	LastPaymentAmount decimal.Decimal `json:"last_payment_amount"`

	CreatedAt time.Time `json:"created_at"`
}
