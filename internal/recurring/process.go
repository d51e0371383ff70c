package recurring

import (
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// Action tells the caller what to persist for a rule.
type Action string

const (
	// ActionDeactivate means the rule's end date has passed.
	ActionDeactivate Action = "deactivate"
	// ActionMaterialize means an occurrence is due: persist Transaction and
	// the updated Rule together.
	ActionMaterialize Action = "materialize"
)

// Outcome is one instruction produced by Process. Rule holds the updated
// rule. ExpectedNext is the nextOccurrence the stored rule must still have
// for the write to apply; it guards against two passes materializing the
// same occurrence.
type Outcome struct {
	Action       Action
	Rule         domain.RecurringRule
	ExpectedNext *civil.Date
	Transaction  *domain.Transaction
}

// IDFunc mints identifiers for materialized transactions.
type IDFunc func() string

// Process evaluates every rule against today and returns the writes needed.
// At most one occurrence per rule is materialized per pass; a rule that
// missed several periods catches up one step at a time. Rules that fail to
// advance are reported in the joined error while the rest are still
// processed.
func Process(rules []domain.RecurringRule, today civil.Date, newID IDFunc) ([]Outcome, error) {
	var (
		out  []Outcome
		errs []error
	)
	for _, rule := range rules {
		o, ok, err := processRule(rule, today, newID)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", rule.ID, err))
			continue
		}
		if ok {
			out = append(out, o)
		}
	}
	return out, errors.Join(errs...)
}

func processRule(rule domain.RecurringRule, today civil.Date, newID IDFunc) (Outcome, bool, error) {
	if !rule.IsActive || !rule.AutoCreate {
		return Outcome{}, false, nil
	}

	if rule.EndDate != nil && rule.EndDate.Before(today) {
		updated := rule
		updated.IsActive = false
		return Outcome{Action: ActionDeactivate, Rule: updated, ExpectedNext: rule.NextOccurrence}, true, nil
	}

	if rule.NextOccurrence == nil || rule.NextOccurrence.After(today) {
		return Outcome{}, false, nil
	}

	due := *rule.NextOccurrence
	next, err := Advance(due, rule.Frequency, rule.StartDate)
	if err != nil {
		return Outcome{}, false, err
	}

	updated := rule
	updated.NextOccurrence = dates.Ptr(next)
	updated.LastCreated = dates.Ptr(due)

	tx := Materialize(rule, due, newID())
	return Outcome{
		Action:       ActionMaterialize,
		Rule:         updated,
		ExpectedNext: dates.Ptr(due),
		Transaction:  &tx,
	}, true, nil
}

// Materialize builds the transaction a rule produces on date. CreatedAt is
// left for the caller to stamp.
func Materialize(rule domain.RecurringRule, date civil.Date, id string) domain.Transaction {
	return domain.Transaction{
		ID:           id,
		Type:         rule.Type,
		Amount:       rule.Amount,
		Description:  rule.Description,
		Category:     rule.Category,
		IncomeSource: rule.IncomeSource,
		Account:      rule.Account,
		Date:         date,
		RecurringID:  rule.ID,
	}
}

// UpcomingDays is the horizon of Upcoming.
const UpcomingDays = 30

// Upcoming returns the active rules whose next occurrence falls within
// [today, today+days], soonest first.
func Upcoming(rules []domain.RecurringRule, today civil.Date, days int) []domain.RecurringRule {
	horizon := today.AddDays(days)
	out := []domain.RecurringRule{}
	for _, r := range rules {
		if !r.IsActive || r.NextOccurrence == nil {
			continue
		}
		if dates.Between(*r.NextOccurrence, today, horizon) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextOccurrence.Before(*out[j].NextOccurrence)
	})
	return out
}
