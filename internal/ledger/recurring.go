package ledger

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pocket-pulse/internal/dates"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/finance"
	"github.com/dvloznov/pocket-pulse/internal/recurring"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// RecurringRules lists the user's rules.
func (s *Service) RecurringRules(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	rules, err := s.store.ListRecurringRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("RecurringRules: %w", err)
	}
	return rules, nil
}

// CreateRecurringRule stores an active rule whose first occurrence is the
// start date, or one step later when the start date is not in the future.
func (s *Service) CreateRecurringRule(ctx context.Context, userID string, form validate.RecurringForm) (domain.RecurringRule, error) {
	rule, err := form.Rule()
	if err != nil {
		return domain.RecurringRule{}, invalid(err)
	}

	next, err := recurring.InitialOccurrence(rule, s.window().Today)
	if err != nil {
		return domain.RecurringRule{}, invalid(err)
	}
	rule.ID = s.newID()
	rule.NextOccurrence = dates.Ptr(next)
	rule.IsActive = true
	rule.CreatedAt = s.clock.Now()

	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.SaveRecurringRule(ctx, userID, rule); err != nil {
		return domain.RecurringRule{}, fmt.Errorf("CreateRecurringRule: %w", err)
	}
	log := s.logFor(ctx, userID)
	log.Info().
		Str("rule_id", rule.ID).
		Str("frequency", string(rule.Frequency)).
		Str("next_occurrence", next.String()).
		Msg("Recurring rule created")
	return rule, nil
}

// UpdateRecurringRule replaces a rule's template and schedule. The next
// occurrence is recomputed only when the frequency or start date changed.
func (s *Service) UpdateRecurringRule(ctx context.Context, userID, id string, form validate.RecurringForm) (domain.RecurringRule, error) {
	rule, err := form.Rule()
	if err != nil {
		return domain.RecurringRule{}, invalid(err)
	}

	unlock := s.lock(userID)
	defer unlock()

	existing, err := s.store.GetRecurringRule(ctx, userID, id)
	if err != nil {
		return domain.RecurringRule{}, fmt.Errorf("UpdateRecurringRule: %w", err)
	}

	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	rule.IsActive = existing.IsActive
	rule.LastCreated = existing.LastCreated
	rule.NextOccurrence = existing.NextOccurrence
	if rule.Frequency != existing.Frequency || rule.StartDate != existing.StartDate || rule.NextOccurrence == nil {
		next, err := recurring.InitialOccurrence(rule, s.window().Today)
		if err != nil {
			return domain.RecurringRule{}, invalid(err)
		}
		rule.NextOccurrence = dates.Ptr(next)
	}

	if err := s.store.SaveRecurringRule(ctx, userID, rule); err != nil {
		return domain.RecurringRule{}, fmt.Errorf("UpdateRecurringRule: %w", err)
	}
	return rule, nil
}

// PauseRule stops a rule from materializing.
func (s *Service) PauseRule(ctx context.Context, userID, id string) (domain.RecurringRule, error) {
	return s.setActive(ctx, userID, id, false)
}

// ResumeRule reactivates a paused rule. Occurrences missed while paused are
// caught up one per pass.
func (s *Service) ResumeRule(ctx context.Context, userID, id string) (domain.RecurringRule, error) {
	return s.setActive(ctx, userID, id, true)
}

func (s *Service) setActive(ctx context.Context, userID, id string, active bool) (domain.RecurringRule, error) {
	unlock := s.lock(userID)
	defer unlock()

	rule, err := s.store.GetRecurringRule(ctx, userID, id)
	if err != nil {
		return domain.RecurringRule{}, fmt.Errorf("setActive: %w", err)
	}
	rule.IsActive = active
	if err := s.store.SaveRecurringRule(ctx, userID, rule); err != nil {
		return domain.RecurringRule{}, fmt.Errorf("setActive: %w", err)
	}
	log := s.logFor(ctx, userID)
	log.Info().Str("rule_id", id).Bool("active", active).Msg("Recurring rule toggled")
	return rule, nil
}

// DeleteRecurringRule removes a rule. Transactions it produced are kept.
func (s *Service) DeleteRecurringRule(ctx context.Context, userID, id string) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.DeleteRecurringRule(ctx, userID, id); err != nil {
		return fmt.Errorf("DeleteRecurringRule: %w", err)
	}
	return nil
}

var scheduleFields = []string{"frequency", "start_date", "end_date"}

// PreviewRule lists the first n dates the submitted rule would produce. Only
// the schedule fields need to be valid.
func (s *Service) PreviewRule(form validate.RecurringForm, n int) ([]civil.Date, error) {
	rule, err := form.Rule()
	var errs validate.Errors
	if errors.As(err, &errs) {
		scheduleErrs := validate.Errors{}
		for _, f := range scheduleFields {
			if msg, ok := errs[f]; ok {
				scheduleErrs[f] = msg
			}
		}
		if err := scheduleErrs.OrNil(); err != nil {
			return nil, invalid(err)
		}
	}
	out, err := recurring.Preview(rule, n)
	if err != nil {
		return nil, invalid(err)
	}
	return out, nil
}

// UpcomingRecurring lists active rules due within the next 30 days.
func (s *Service) UpcomingRecurring(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	rules, err := s.store.ListRecurringRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("UpcomingRecurring: %w", err)
	}
	return recurring.Upcoming(rules, s.window().Today, recurring.UpcomingDays), nil
}

// ProcessResult counts what one pass did.
type ProcessResult struct {
	Created     []domain.Transaction `json:"created"`
	Deactivated []string             `json:"deactivated"`
	Skipped     int                  `json:"skipped"`
}

// ProcessRecurring runs one recurring pass for the user. Each outcome is
// committed atomically with its rule update and balance move; an outcome
// whose rule was changed by a concurrent writer is skipped. Rules that
// cannot be advanced are reported in the returned error after the others
// are committed.
func (s *Service) ProcessRecurring(ctx context.Context, userID string) (ProcessResult, error) {
	unlock := s.lock(userID)
	defer unlock()

	log := s.logFor(ctx, userID)
	result := ProcessResult{Created: []domain.Transaction{}, Deactivated: []string{}}

	rules, err := s.store.ListRecurringRules(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("ProcessRecurring: listing rules: %w", err)
	}

	today := s.window().Today
	outcomes, passErr := recurring.Process(rules, today, s.newID)
	if passErr != nil {
		log.Error().Err(passErr).Msg("Some recurring rules could not be advanced")
	}

	now := s.clock.Now()
	for _, o := range outcomes {
		rule := o.Rule
		b := store.Batch{Rule: &rule, ExpectedNext: o.ExpectedNext}
		if o.Transaction != nil {
			o.Transaction.CreatedAt = now
			accounts, err := s.adjusted(ctx, userID, finance.ForCreate(*o.Transaction))
			if err != nil {
				return result, fmt.Errorf("ProcessRecurring: rule %s: %w", o.Rule.ID, err)
			}
			b.Transactions = []domain.Transaction{*o.Transaction}
			b.Accounts = accounts
		}

		err := s.store.Commit(ctx, userID, b)
		if errors.Is(err, store.ErrStaleRule) {
			log.Warn().Str("rule_id", o.Rule.ID).Msg("Recurring rule changed during pass, skipping")
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("ProcessRecurring: committing rule %s: %w", o.Rule.ID, err)
		}

		switch o.Action {
		case recurring.ActionDeactivate:
			result.Deactivated = append(result.Deactivated, o.Rule.ID)
			log.Info().Str("rule_id", o.Rule.ID).Msg("Recurring rule ended")
		case recurring.ActionMaterialize:
			tx := *o.Transaction
			result.Created = append(result.Created, tx)
			log.Info().
				Str("rule_id", o.Rule.ID).
				Str("transaction_id", tx.ID).
				Str("date", tx.Date.String()).
				Msg("Recurring transaction created")
		}
	}

	if passErr != nil {
		return result, fmt.Errorf("ProcessRecurring: %w", passErr)
	}
	return result, nil
}
