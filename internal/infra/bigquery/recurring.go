package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// RecurringRuleRow is one row of the recurring_rules table.
type RecurringRuleRow struct {
	UserID          string              `bigquery:"user_id"` // REQUIRED
	RuleID          string              `bigquery:"rule_id"` // REQUIRED
	TransactionType string              `bigquery:"transaction_type"`
	Amount          *big.Rat            `bigquery:"amount"`
	Description     string              `bigquery:"description"`
	CategoryName    bigquery.NullString `bigquery:"category_name"`
	IncomeSource    bigquery.NullString `bigquery:"income_source"`
	AccountID       string              `bigquery:"account_id"`

	Frequency      string            `bigquery:"frequency"`
	StartDate      civil.Date        `bigquery:"start_date"` // REQUIRED
	EndDate        bigquery.NullDate `bigquery:"end_date"`
	NextOccurrence bigquery.NullDate `bigquery:"next_occurrence"`
	LastCreated    bigquery.NullDate `bigquery:"last_created"`
	IsActive       bool              `bigquery:"is_active"`
	AutoCreate     bool              `bigquery:"auto_create"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

var recurringKeys = []string{"user_id", "rule_id"}

func recurringRowOf(userID string, r domain.RecurringRule) RecurringRuleRow {
	return RecurringRuleRow{
		UserID:          userID,
		RuleID:          r.ID,
		TransactionType: string(r.Type),
		Amount:          ratOf(r.Amount),
		Description:     r.Description,
		CategoryName:    nullString(r.Category),
		IncomeSource:    nullString(r.IncomeSource),
		AccountID:       r.Account,
		Frequency:       string(r.Frequency),
		StartDate:       r.StartDate,
		EndDate:         nullDate(r.EndDate),
		NextOccurrence:  nullDate(r.NextOccurrence),
		LastCreated:     nullDate(r.LastCreated),
		IsActive:        r.IsActive,
		AutoCreate:      r.AutoCreate,
		CreatedTS:       r.CreatedAt,
	}
}

// Rule converts the row to a domain value.
func (r RecurringRuleRow) Rule() domain.RecurringRule {
	return domain.RecurringRule{
		ID:             r.RuleID,
		Type:           domain.TransactionType(r.TransactionType),
		Amount:         decimalOf(r.Amount),
		Description:    r.Description,
		Category:       r.CategoryName.StringVal,
		IncomeSource:   r.IncomeSource.StringVal,
		Account:        r.AccountID,
		Frequency:      domain.Frequency(r.Frequency),
		StartDate:      r.StartDate,
		EndDate:        datePtr(r.EndDate),
		NextOccurrence: datePtr(r.NextOccurrence),
		LastCreated:    datePtr(r.LastCreated),
		IsActive:       r.IsActive,
		AutoCreate:     r.AutoCreate,
		CreatedAt:      r.CreatedTS,
	}
}

func (r RecurringRuleRow) params() []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "user_id", Value: r.UserID},
		{Name: "rule_id", Value: r.RuleID},
		{Name: "transaction_type", Value: r.TransactionType},
		{Name: "amount", Value: r.Amount},
		{Name: "description", Value: r.Description},
		{Name: "category_name", Value: r.CategoryName},
		{Name: "income_source", Value: r.IncomeSource},
		{Name: "account_id", Value: r.AccountID},
		{Name: "frequency", Value: r.Frequency},
		{Name: "start_date", Value: r.StartDate},
		{Name: "end_date", Value: r.EndDate},
		{Name: "next_occurrence", Value: r.NextOccurrence},
		{Name: "last_created", Value: r.LastCreated},
		{Name: "is_active", Value: r.IsActive},
		{Name: "auto_create", Value: r.AutoCreate},
		{Name: "created_ts", Value: r.CreatedTS},
	}
}
