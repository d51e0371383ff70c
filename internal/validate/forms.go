package validate

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionForm is a submitted transaction.
type TransactionForm struct {
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	IncomeSource string `json:"income_source"`
	Account      string `json:"account"`
	Date         string `json:"date"`
	Notes        string `json:"notes"`
}

// Transaction validates the form. Income without a category is filed under
// domain.IncomeCategory; expenses never carry an income source.
func (f TransactionForm) Transaction() (domain.Transaction, error) {
	errs := Errors{}
	tx := f.entry(errs)

	date, ok := Date(f.Date)
	if !ok {
		errs["date"] = "Please enter a valid date"
	}
	tx.Date = date

	return tx, errs.OrNil()
}

func (f TransactionForm) entry(errs Errors) domain.Transaction {
	typ := domain.TransactionType(strings.TrimSpace(f.Type))
	if typ == "" {
		typ = domain.TypeExpense
	}
	if !typ.Valid() {
		errs["type"] = "Please select a transaction type"
	}

	amount, ok := Amount(f.Amount)
	if !ok {
		errs["amount"] = "Please enter a valid amount"
	}
	if !Required(f.Description) {
		errs["description"] = "Description is required"
	}
	if !Required(f.Account) {
		errs["account"] = "Please select an account"
	}

	tx := domain.Transaction{
		Type:        typ,
		Amount:      amount,
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Account:     strings.TrimSpace(f.Account),
		Notes:       strings.TrimSpace(f.Notes),
	}

	switch typ {
	case domain.TypeExpense:
		if tx.Category == "" {
			errs["category"] = "Please select a category"
		}
	case domain.TypeIncome:
		tx.IncomeSource = strings.TrimSpace(f.IncomeSource)
		if tx.IncomeSource == "" {
			errs["income_source"] = "Please select an income source"
		}
		if tx.Category == "" {
			tx.Category = domain.IncomeCategory
		}
	case domain.TypeLoanPayment:
		if tx.Category == "" {
			tx.Category = domain.LoanPaymentCategory
		}
	}
	return tx
}

// RecurringForm is a submitted recurring rule.
type RecurringForm struct {
	TransactionForm
	Frequency  string `json:"frequency"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	AutoCreate *bool  `json:"auto_create"`
}

// Rule validates the form. The schedule state (next occurrence, active
// flag) is left for the caller to initialize.
func (f RecurringForm) Rule() (domain.RecurringRule, error) {
	errs := Errors{}
	tx := f.entry(errs)

	freq := domain.Frequency(strings.TrimSpace(f.Frequency))
	if !freq.Valid() {
		errs["frequency"] = "Please select a frequency"
	}

	start, ok := Date(f.StartDate)
	if !ok {
		errs["start_date"] = "Please enter a valid start date"
	}

	var end *civil.Date
	if Required(f.EndDate) {
		d, ok := Date(f.EndDate)
		switch {
		case !ok:
			errs["end_date"] = "Please enter a valid end date"
		case start.IsValid() && d.Before(start):
			errs["end_date"] = "End date must be after start date"
		default:
			end = &d
		}
	}

	autoCreate := true
	if f.AutoCreate != nil {
		autoCreate = *f.AutoCreate
	}

	rule := domain.RecurringRule{
		Type:         tx.Type,
		Amount:       tx.Amount,
		Description:  tx.Description,
		Category:     tx.Category,
		IncomeSource: tx.IncomeSource,
		Account:      tx.Account,
		Frequency:    freq,
		StartDate:    start,
		EndDate:      end,
		AutoCreate:   autoCreate,
	}
	return rule, errs.OrNil()
}

// AccountForm is a submitted account.
type AccountForm struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// Account validates the form. The balance may be negative (credit cards).
func (f AccountForm) Account() (domain.Account, error) {
	errs := Errors{}
	if !Required(f.Name) {
		errs["name"] = "Account name is required"
	}
	typ := domain.AccountType(strings.TrimSpace(f.Type))
	if !typ.Valid() {
		errs["type"] = "Please select an account type"
	}
	balance, ok := Number(f.Balance)
	if !ok {
		errs["balance"] = "Please enter a valid balance"
	}
	return domain.Account{
		Name:    strings.TrimSpace(f.Name),
		Type:    typ,
		Balance: balance,
	}, errs.OrNil()
}

// LoanForm is a submitted loan.
type LoanForm struct {
	Name         string `json:"name"`
	Lender       string `json:"lender"`
	Amount       string `json:"amount"`
	InterestRate string `json:"interest_rate"`
	DueDate      string `json:"due_date"`
	Account      string `json:"account"`
	Notes        string `json:"notes"`
}

// Loan validates the form. An empty interest rate means 0%.
func (f LoanForm) Loan() (domain.Loan, error) {
	errs := Errors{}
	if !Required(f.Name) {
		errs["name"] = "Loan name is required"
	}
	amount, ok := Amount(f.Amount)
	if !ok {
		errs["amount"] = "Please enter a valid amount"
	}
	if !Required(f.Account) {
		errs["account"] = "Please select an account"
	}

	rate := decimal.Zero
	if Required(f.InterestRate) {
		r, ok := Number(f.InterestRate)
		if !ok || r.IsNegative() {
			errs["interest_rate"] = "Please enter a valid interest rate"
		}
		rate = r
	}

	var due *civil.Date
	if Required(f.DueDate) {
		d, ok := Date(f.DueDate)
		if !ok {
			errs["due_date"] = "Please enter a valid due date"
		} else {
			due = &d
		}
	}

	return domain.Loan{
		Name:         strings.TrimSpace(f.Name),
		Lender:       strings.TrimSpace(f.Lender),
		Amount:       amount,
		InterestRate: rate,
		DueDate:      due,
		Account:      strings.TrimSpace(f.Account),
		Notes:        strings.TrimSpace(f.Notes),
	}, errs.OrNil()
}

// PaymentForm is a submitted loan payment.
type PaymentForm struct {
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// Payment validates the payment against the loan's remaining amount.
func (f PaymentForm) Payment(loan domain.Loan) (decimal.Decimal, civil.Date, error) {
	errs := Errors{}
	amount, ok := Amount(f.Amount)
	switch {
	case !ok:
		errs["amount"] = "Please enter a valid amount"
	case amount.GreaterThan(loan.RemainingAmount):
		errs["amount"] = "Payment cannot exceed the remaining amount"
	}
	date, ok := Date(f.Date)
	if !ok {
		errs["date"] = "Please enter a valid date"
	}
	return amount, date, errs.OrNil()
}
