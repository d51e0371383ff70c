package finance

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/shopspring/decimal"
)

// Filters are the structured constraints of the transaction list. Zero
// values impose no constraint.
type Filters struct {
	Type      domain.TransactionType
	Category  string
	Account   string
	DateFrom  *civil.Date
	DateTo    *civil.Date
	AmountMin decimal.NullDecimal
	AmountMax decimal.NullDecimal
}

// Active reports whether any constraint is set.
func (f Filters) Active() bool {
	return f.Type != "" || f.Category != "" || f.Account != "" ||
		f.DateFrom != nil || f.DateTo != nil || f.AmountMin.Valid || f.AmountMax.Valid
}

// Match reports whether tx satisfies every constraint.
func (f Filters) Match(tx domain.Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.Account != "" && tx.Account != f.Account {
		return false
	}
	if f.DateFrom != nil && tx.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && tx.Date.After(*f.DateTo) {
		return false
	}
	if f.AmountMin.Valid && tx.Amount.LessThan(f.AmountMin.Decimal) {
		return false
	}
	if f.AmountMax.Valid && tx.Amount.GreaterThan(f.AmountMax.Decimal) {
		return false
	}
	return true
}

// MatchSearch reports whether term occurs, ignoring case, in the description,
// category, income source or amount of tx. The term is used as given,
// surrounding spaces included. An empty term matches everything.
func MatchSearch(tx domain.Transaction, term string) bool {
	term = strings.ToLower(term)
	if term == "" {
		return true
	}
	for _, field := range []string{tx.Description, tx.Category, tx.IncomeSource, tx.Amount.String()} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// FilterTransactions returns, in input order, the transactions matching both
// the search term and the filters.
func FilterTransactions(txs []domain.Transaction, search string, f Filters) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if MatchSearch(tx, search) && f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}
