package domain

// Default labels shared by forms and derived transactions.
const (
	IncomeCategory      = "Income"
	LoanPaymentCategory = "Loan Payment"
)

// ExpenseCategories are offered by default when recording an expense.
var ExpenseCategories = []string{
	"Groceries",
	"Rent",
	"Utilities",
	"Transportation",
	"Entertainment",
	"Healthcare",
	"Education",
	"Shopping",
	"Dining",
	"Other",
}

// IncomeSources are offered by default when recording income.
var IncomeSources = []string{
	"Full-time Salary",
	"Freelance",
	"Consulting",
	"Investment",
	"Business",
	"Rental Income",
	"Other",
}

// Ledger is a consistent snapshot of one user's data.
type Ledger struct {
	UserID         string          `json:"user_id"`
	Accounts       []Account       `json:"accounts"`
	Transactions   []Transaction   `json:"transactions"`
	Budgets        []Budget        `json:"budgets"`
	RecurringRules []RecurringRule `json:"recurring"`
	Loans          []Loan          `json:"loans"`
}
