package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Frequency is the step between two occurrences of a recurring rule.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Frequencies lists every frequency with its display label, in UI order.
var Frequencies = []struct {
	Value Frequency
	Label string
}{
	{FrequencyDaily, "Daily"},
	{FrequencyWeekly, "Weekly"},
	{FrequencyBiweekly, "Bi-weekly (every 2 weeks)"},
	{FrequencyMonthly, "Monthly"},
	{FrequencyQuarterly, "Quarterly (every 3 months)"},
	{FrequencyYearly, "Yearly"},
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if known.Value == f {
			return true
		}
	}
	return false
}

// RecurringRule produces a transaction every Frequency step starting at
// StartDate. NextOccurrence is the next date an instance should be created.
type RecurringRule struct {
	ID           string          `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category,omitempty"`
	IncomeSource string          `json:"income_source,omitempty"`
	Account      string          `json:"account"`

	Frequency      Frequency   `json:"frequency"`
	StartDate      civil.Date  `json:"start_date"`
	EndDate        *civil.Date `json:"end_date,omitempty"`
	NextOccurrence *civil.Date `json:"next_occurrence,omitempty"`
	LastCreated    *civil.Date `json:"last_created,omitempty"`

	IsActive   bool `json:"is_active"`
	AutoCreate bool `json:"auto_create"`

	CreatedAt time.Time `json:"created_at"`
}
