// Package loans tracks repayment of loans and derives the ledger entry for
// each payment.
package loans

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidPayment is returned for non-positive payment amounts.
var ErrInvalidPayment = errors.New("payment amount must be positive")

// NewLoan initializes the repayment state of a freshly recorded loan.
func NewLoan(l domain.Loan, now time.Time) domain.Loan {
	l.Status = domain.LoanActive
	l.RemainingAmount = l.Amount
	l.LastPaymentDate = nil
	l.LastPaymentAmount = decimal.Zero
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	return l
}

// RecordPayment applies a payment and returns the updated loan together with
// the loan-payment transaction debiting the loan's account. Callers reject
// payments above the remaining amount; if one slips through the remaining
// amount is clamped at zero.
func RecordPayment(loan domain.Loan, amount decimal.Decimal, date civil.Date, txID string) (domain.Loan, domain.Transaction, error) {
	if !amount.IsPositive() {
		return loan, domain.Transaction{}, fmt.Errorf("loans.RecordPayment: %w: %s", ErrInvalidPayment, amount)
	}

	updated := loan
	updated.RemainingAmount = decimal.Max(loan.RemainingAmount.Sub(amount), decimal.Zero)
	updated.Status = domain.LoanActive
	if updated.RemainingAmount.IsZero() {
		updated.Status = domain.LoanPaid
	}
	updated.LastPaymentDate = dates.Ptr(date)
	updated.LastPaymentAmount = amount

	tx := domain.Transaction{
		ID:          txID,
		Type:        domain.TypeLoanPayment,
		Amount:      amount,
		Description: "Payment for " + loan.Name,
		Category:    domain.LoanPaymentCategory,
		Account:     loan.Account,
		Date:        date,
		LoanID:      loan.ID,
		LoanName:    loan.Name,
	}
	return updated, tx, nil
}

// Progress is the repaid share of the principal as a percentage.
func Progress(loan domain.Loan) decimal.Decimal {
	if !loan.Amount.IsPositive() {
		return decimal.Zero
	}
	paid := loan.Amount.Sub(loan.RemainingAmount)
	return paid.Div(loan.Amount).Mul(decimal.NewFromInt(100)).Round(2)
}

// Totals aggregates the loan list for the overview.
type Totals struct {
	Borrowed  decimal.Decimal `json:"borrowed"`
	Remaining decimal.Decimal `json:"remaining"`
	Active    int             `json:"active"`
	Paid      int             `json:"paid"`
}

// Summarize totals principal and outstanding balance across loans.
func Summarize(loans []domain.Loan) Totals {
	var t Totals
	for _, l := range loans {
		t.Borrowed = t.Borrowed.Add(l.Amount)
		t.Remaining = t.Remaining.Add(l.RemainingAmount)
		if l.Status == domain.LoanPaid {
			t.Paid++
		} else {
			t.Active++
		}
	}
	return t
}

// Active filters out paid loans.
func Active(loans []domain.Loan) []domain.Loan {
	out := []domain.Loan{}
	for _, l := range loans {
		if l.Status != domain.LoanPaid {
			out = append(out, l)
		}
	}
	return out
}

// Overdue reports whether an active loan is past its due date.
func Overdue(loan domain.Loan, today civil.Date) bool {
	return loan.Status == domain.LoanActive && loan.DueDate != nil && loan.DueDate.Before(today)
}
