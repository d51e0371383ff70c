package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/finance"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// adjusted returns the accounts touched by adj with their new balances, to
// be committed together with the transaction write that caused them.
// Callers hold the user lock.
func (s *Service) adjusted(ctx context.Context, userID string, adj []finance.BalanceAdjustment) ([]domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return finance.ApplyAdjustments(accounts, adj), nil
}

// AddTransaction records a new transaction and moves its account's balance.
func (s *Service) AddTransaction(ctx context.Context, userID string, form validate.TransactionForm) (domain.Transaction, error) {
	tx, err := form.Transaction()
	if err != nil {
		return domain.Transaction{}, invalid(err)
	}

	unlock := s.lock(userID)
	defer unlock()

	tx.ID = s.newID()
	tx.CreatedAt = s.clock.Now()
	accounts, err := s.adjusted(ctx, userID, finance.ForCreate(tx))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w", err)
	}
	b := store.Batch{Transactions: []domain.Transaction{tx}, Accounts: accounts}
	if err := s.store.Commit(ctx, userID, b); err != nil {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: saving: %w", err)
	}

	log := s.logFor(ctx, userID)
	log.Info().
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Msg("Transaction added")
	return tx, nil
}

// EditTransaction replaces a transaction. The old effect is reversed and the
// new one applied, across accounts when the account changed.
func (s *Service) EditTransaction(ctx context.Context, userID, id string, form validate.TransactionForm) (domain.Transaction, error) {
	updated, err := form.Transaction()
	if err != nil {
		return domain.Transaction{}, invalid(err)
	}

	unlock := s.lock(userID)
	defer unlock()

	old, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("EditTransaction: %w", err)
	}

	updated.ID = old.ID
	updated.CreatedAt = old.CreatedAt
	updated.LoanID, updated.LoanName = old.LoanID, old.LoanName
	updated.RecurringID = old.RecurringID

	accounts, err := s.adjusted(ctx, userID, finance.ForEdit(old, updated))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("EditTransaction: %w", err)
	}
	b := store.Batch{Transactions: []domain.Transaction{updated}, Accounts: accounts}
	if err := s.store.Commit(ctx, userID, b); err != nil {
		return domain.Transaction{}, fmt.Errorf("EditTransaction: saving: %w", err)
	}

	log := s.logFor(ctx, userID)
	log.Info().Str("transaction_id", id).Msg("Transaction updated")
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its effect.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	unlock := s.lock(userID)
	defer unlock()

	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	accounts, err := s.adjusted(ctx, userID, finance.ForDelete(tx))
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	b := store.Batch{DeleteTransactions: []string{id}, Accounts: accounts}
	if err := s.store.Commit(ctx, userID, b); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}

	log := s.logFor(ctx, userID)
	log.Info().Str("transaction_id", id).Msg("Transaction deleted")
	return nil
}
