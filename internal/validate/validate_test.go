package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

func fieldErrors(t *testing.T, err error) Errors {
	t.Helper()
	if err == nil {
		return nil
	}
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validate.Errors, got %T", err)
	}
	return errs
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"12.50", true, "12.5"},
		{" 3 ", true, "3"},
		{"0", false, ""},
		{"-1", false, ""},
		{"abc", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Amount(tt.in)
			if ok != tt.ok {
				t.Fatalf("Amount(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("Amount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-1-5", false},
		{"05/01/2024", false},
		{"", false},
	}
	for _, tt := range tests {
		if _, ok := Date(tt.in); ok != tt.ok {
			t.Errorf("Date(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

func TestTransactionForm(t *testing.T) {
	tests := []struct {
		name       string
		form       TransactionForm
		wantFields []string
	}{
		{
			name: "valid expense",
			form: TransactionForm{Type: "expense", Amount: "10", Description: "Lunch", Category: "Dining", Account: "a", Date: "2024-06-01"},
		},
		{
			name: "valid income",
			form: TransactionForm{Type: "income", Amount: "10", Description: "Pay", IncomeSource: "Freelance", Account: "a", Date: "2024-06-01"},
		},
		{
			name:       "empty form",
			form:       TransactionForm{},
			wantFields: []string{"account", "amount", "category", "date", "description"},
		},
		{
			name:       "income needs source",
			form:       TransactionForm{Type: "income", Amount: "10", Description: "Pay", Account: "a", Date: "2024-06-01"},
			wantFields: []string{"income_source"},
		},
		{
			name:       "whitespace description",
			form:       TransactionForm{Type: "expense", Amount: "10", Description: "   ", Category: "Dining", Account: "a", Date: "2024-06-01"},
			wantFields: []string{"description"},
		},
		{
			name:       "unknown type",
			form:       TransactionForm{Type: "transfer", Amount: "10", Description: "x", Account: "a", Date: "2024-06-01"},
			wantFields: []string{"type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Transaction()
			errs := fieldErrors(t, err)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got errors %v, want fields %v", errs, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := errs[f]; !ok {
					t.Errorf("missing error for %s", f)
				}
			}
		})
	}
}

func TestTransactionForm_Defaults(t *testing.T) {
	tx, err := TransactionForm{Type: "income", Amount: "100", Description: " Pay ", IncomeSource: "Freelance", Account: "a", Date: "2024-06-01"}.Transaction()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Category != domain.IncomeCategory || tx.Description != "Pay" {
		t.Errorf("unexpected defaults %+v", tx)
	}

	tx, err = TransactionForm{Type: "expense", Amount: "5", Description: "x", Category: "Dining", IncomeSource: "Freelance", Account: "a", Date: "2024-06-01"}.Transaction()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.IncomeSource != "" {
		t.Errorf("expense kept income source %q", tx.IncomeSource)
	}
}

func TestRecurringForm(t *testing.T) {
	base := TransactionForm{Type: "expense", Amount: "1200", Description: "Rent", Category: "Rent", Account: "a"}

	rule, err := RecurringForm{TransactionForm: base, Frequency: "monthly", StartDate: "2024-01-31"}.Rule()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Frequency != domain.FrequencyMonthly || !rule.AutoCreate || rule.EndDate != nil {
		t.Errorf("unexpected rule %+v", rule)
	}

	manual := false
	rule, err = RecurringForm{TransactionForm: base, Frequency: "weekly", StartDate: "2024-01-01", EndDate: "2024-12-31", AutoCreate: &manual}.Rule()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.AutoCreate || rule.EndDate == nil || rule.EndDate.String() != "2024-12-31" {
		t.Errorf("unexpected rule %+v", rule)
	}

	_, err = RecurringForm{TransactionForm: base, Frequency: "hourly", StartDate: "2024-02-01", EndDate: "2024-01-01"}.Rule()
	errs := fieldErrors(t, err)
	if errs["frequency"] == "" || errs["end_date"] != "End date must be after start date" {
		t.Errorf("unexpected errors %v", errs)
	}
	if _, ok := errs["date"]; ok {
		t.Error("recurring form should not require a transaction date")
	}
}

func TestAccountForm(t *testing.T) {
	acc, err := AccountForm{Name: "Visa", Type: "credit", Balance: "-250.10"}.Account()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.Balance.Equal(decimal.RequireFromString("-250.10")) {
		t.Errorf("Balance = %s", acc.Balance)
	}

	_, err = AccountForm{Type: "crypto", Balance: "lots"}.Account()
	if errs := fieldErrors(t, err); len(errs) != 3 {
		t.Errorf("expected 3 errors, got %v", errs)
	}
}

func TestLoanForm(t *testing.T) {
	loan, err := LoanForm{Name: "Car", Amount: "5000", Account: "a"}.Loan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loan.InterestRate.IsZero() || loan.DueDate != nil {
		t.Errorf("unexpected defaults %+v", loan)
	}

	_, err = LoanForm{Name: "Car", Amount: "5000", Account: "a", InterestRate: "-1", DueDate: "soon"}.Loan()
	errs := fieldErrors(t, err)
	if errs["interest_rate"] == "" || errs["due_date"] == "" {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestPaymentForm(t *testing.T) {
	loan := domain.Loan{RemainingAmount: decimal.NewFromInt(100)}

	amount, date, err := PaymentForm{Amount: "100", Date: "2024-06-01"}.Payment(loan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(decimal.NewFromInt(100)) || date.String() != "2024-06-01" {
		t.Errorf("got %s on %s", amount, date)
	}

	_, _, err = PaymentForm{Amount: "100.01", Date: "2024-06-01"}.Payment(loan)
	if errs := fieldErrors(t, err); !strings.Contains(errs["amount"], "exceed") {
		t.Errorf("expected over-payment error, got %v", errs)
	}
}

func TestErrors_Error(t *testing.T) {
	err := Errors{"b": "second", "a": "first"}
	want := "validation failed: a: first; b: second"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if (Errors{}).OrNil() != nil {
		t.Error("empty Errors should be nil")
	}
}
