package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// Accounts lists the user's accounts.
func (s *Service) Accounts(ctx context.Context, userID string) ([]domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Accounts: %w", err)
	}
	return accounts, nil
}

// CreateAccount opens an account with the submitted starting balance.
func (s *Service) CreateAccount(ctx context.Context, userID string, form validate.AccountForm) (domain.Account, error) {
	a, err := form.Account()
	if err != nil {
		return domain.Account{}, invalid(err)
	}
	a.ID = s.newID()
	a.CreatedAt = s.clock.Now()

	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.SaveAccount(ctx, userID, a); err != nil {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}
	log := s.logFor(ctx, userID)
	log.Info().Str("account_id", a.ID).Str("name", a.Name).Msg("Account created")
	return a, nil
}

// UpdateAccount overwrites name, type and balance. Setting the balance here
// is a correction; no transaction is recorded for it.
func (s *Service) UpdateAccount(ctx context.Context, userID, id string, form validate.AccountForm) (domain.Account, error) {
	a, err := form.Account()
	if err != nil {
		return domain.Account{}, invalid(err)
	}

	unlock := s.lock(userID)
	defer unlock()

	existing, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("UpdateAccount: %w", err)
	}
	a.ID, a.CreatedAt = existing.ID, existing.CreatedAt
	if err := s.store.SaveAccount(ctx, userID, a); err != nil {
		return domain.Account{}, fmt.Errorf("UpdateAccount: %w", err)
	}
	return a, nil
}

// DeleteAccount removes an account. Its transactions remain and display as
// belonging to an unknown account.
func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	log := s.logFor(ctx, userID)
	log.Info().Str("account_id", id).Msg("Account deleted")
	return nil
}

// Budgets lists the user's budgets.
func (s *Service) Budgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudgets sets limits per category. An empty, zero or negative limit
// removes the category's budget.
func (s *Service) UpdateBudgets(ctx context.Context, userID string, limits map[string]string) ([]domain.Budget, error) {
	errs := validate.Errors{}
	set := make(map[string]decimal.Decimal)
	var clear []string

	for category, raw := range limits {
		category = strings.TrimSpace(category)
		if category == "" {
			errs["category"] = "Category is required"
			continue
		}
		if !validate.Required(raw) {
			clear = append(clear, category)
			continue
		}
		limit, ok := validate.Number(raw)
		if !ok {
			errs[category] = "Please enter a valid amount"
			continue
		}
		if !limit.IsPositive() {
			clear = append(clear, category)
			continue
		}
		set[category] = limit
	}
	if err := errs.OrNil(); err != nil {
		return nil, invalid(err)
	}

	unlock := s.lock(userID)
	defer unlock()

	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	now := s.clock.Now()
	for _, c := range categories {
		if err := s.store.SaveBudget(ctx, userID, domain.Budget{Category: c, Limit: set[c], UpdatedAt: now}); err != nil {
			return nil, fmt.Errorf("UpdateBudgets: saving %s: %w", c, err)
		}
	}
	for _, c := range clear {
		if err := s.store.DeleteBudget(ctx, userID, c); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("UpdateBudgets: deleting %s: %w", c, err)
		}
	}

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("UpdateBudgets: %w", err)
	}
	return budgets, nil
}
