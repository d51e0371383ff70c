package loans

import (
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

func carLoan() domain.Loan {
	return NewLoan(domain.Loan{
		ID:      "loan-1",
		Name:    "Car",
		Amount:  decimal.NewFromInt(1000),
		Account: "checking",
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestNewLoan(t *testing.T) {
	l := carLoan()
	if l.Status != domain.LoanActive {
		t.Errorf("Status = %s", l.Status)
	}
	if !l.RemainingAmount.Equal(l.Amount) {
		t.Errorf("RemainingAmount = %s, want %s", l.RemainingAmount, l.Amount)
	}
	if l.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestRecordPayment(t *testing.T) {
	date := dates.MustParse("2024-06-10")

	tests := []struct {
		name          string
		amount        string
		wantRemaining string
		wantStatus    domain.LoanStatus
	}{
		{"partial", "250", "750", domain.LoanActive},
		{"full", "1000", "0", domain.LoanPaid},
		{"over clamps at zero", "1500", "0", domain.LoanPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			loan, tx, err := RecordPayment(carLoan(), amount, date, "tx-1")
			if err != nil {
				t.Fatalf("RecordPayment failed: %v", err)
			}
			if !loan.RemainingAmount.Equal(decimal.RequireFromString(tt.wantRemaining)) {
				t.Errorf("RemainingAmount = %s, want %s", loan.RemainingAmount, tt.wantRemaining)
			}
			if loan.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", loan.Status, tt.wantStatus)
			}
			if loan.LastPaymentDate == nil || *loan.LastPaymentDate != date || !loan.LastPaymentAmount.Equal(amount) {
				t.Errorf("last payment not recorded: %+v", loan)
			}

			if tx.Type != domain.TypeLoanPayment || tx.Account != "checking" || tx.LoanID != "loan-1" {
				t.Errorf("unexpected transaction %+v", tx)
			}
			if tx.Category != domain.LoanPaymentCategory || tx.Description != "Payment for Car" {
				t.Errorf("unexpected labels %q / %q", tx.Category, tx.Description)
			}
			if !tx.Amount.Equal(amount) || tx.Date != date || tx.ID != "tx-1" {
				t.Errorf("unexpected amount/date %+v", tx)
			}
		})
	}
}

func TestRecordPayment_Rejects(t *testing.T) {
	for _, amount := range []string{"0", "-5"} {
		_, _, err := RecordPayment(carLoan(), decimal.RequireFromString(amount), dates.MustParse("2024-06-10"), "x")
		if !errors.Is(err, ErrInvalidPayment) {
			t.Errorf("amount %s: expected ErrInvalidPayment, got %v", amount, err)
		}
	}
}

func TestSummaries(t *testing.T) {
	paid, _, _ := RecordPayment(carLoan(), decimal.NewFromInt(1000), dates.MustParse("2024-06-10"), "x")
	half, _, _ := RecordPayment(carLoan(), decimal.NewFromInt(500), dates.MustParse("2024-06-10"), "y")
	loans := []domain.Loan{paid, half}

	totals := Summarize(loans)
	if !totals.Borrowed.Equal(decimal.NewFromInt(2000)) || !totals.Remaining.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unexpected totals %+v", totals)
	}
	if totals.Active != 1 || totals.Paid != 1 {
		t.Errorf("unexpected counts %+v", totals)
	}
	if got := Active(loans); len(got) != 1 || !got[0].RemainingAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Active = %+v", got)
	}
	if got := Progress(half); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Progress = %s, want 50", got)
	}
}

func TestOverdue(t *testing.T) {
	l := carLoan()
	today := dates.MustParse("2024-06-10")
	if Overdue(l, today) {
		t.Error("loan without due date cannot be overdue")
	}
	l.DueDate = dates.Ptr(dates.MustParse("2024-06-09"))
	if !Overdue(l, today) {
		t.Error("expected overdue")
	}
	l.Status = domain.LoanPaid
	if Overdue(l, today) {
		t.Error("paid loan cannot be overdue")
	}
}
