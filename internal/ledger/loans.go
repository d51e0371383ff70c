package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/finance"
	"github.com/dvloznov/pocket-pulse/internal/loans"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// Loans lists every loan of the user.
func (s *Service) Loans(ctx context.Context, userID string) ([]domain.Loan, error) {
	out, err := s.store.ListLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Loans: %w", err)
	}
	return out, nil
}

// ActiveLoans lists the loans not yet paid off.
func (s *Service) ActiveLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	all, err := s.Loans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ActiveLoans: %w", err)
	}
	return loans.Active(all), nil
}

// CreateLoan records a loan with its full amount outstanding.
func (s *Service) CreateLoan(ctx context.Context, userID string, form validate.LoanForm) (domain.Loan, error) {
	l, err := form.Loan()
	if err != nil {
		return domain.Loan{}, invalid(err)
	}
	l.ID = s.newID()
	l = loans.NewLoan(l, s.clock.Now())

	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.SaveLoan(ctx, userID, l); err != nil {
		return domain.Loan{}, fmt.Errorf("CreateLoan: %w", err)
	}
	log := s.logFor(ctx, userID)
	log.Info().Str("loan_id", l.ID).Str("amount", l.Amount.String()).Msg("Loan created")
	return l, nil
}

// RecordLoanPayment applies a payment: the loan-payment transaction is
// stored, the linked account is debited and the loan's remaining amount
// reduced, all in one commit.
func (s *Service) RecordLoanPayment(ctx context.Context, userID, loanID string, form validate.PaymentForm) (domain.Loan, domain.Transaction, error) {
	unlock := s.lock(userID)
	defer unlock()

	loan, err := s.store.GetLoan(ctx, userID, loanID)
	if err != nil {
		return domain.Loan{}, domain.Transaction{}, fmt.Errorf("RecordLoanPayment: %w", err)
	}

	amount, date, err := form.Payment(loan)
	if err != nil {
		return loan, domain.Transaction{}, invalid(err)
	}

	updated, tx, err := loans.RecordPayment(loan, amount, date, s.newID())
	if err != nil {
		return loan, domain.Transaction{}, invalid(err)
	}
	tx.CreatedAt = s.clock.Now()

	accounts, err := s.adjusted(ctx, userID, finance.ForCreate(tx))
	if err != nil {
		return loan, domain.Transaction{}, fmt.Errorf("RecordLoanPayment: %w", err)
	}
	b := store.Batch{
		Transactions: []domain.Transaction{tx},
		Accounts:     accounts,
		Loans:        []domain.Loan{updated},
	}
	if err := s.store.Commit(ctx, userID, b); err != nil {
		return loan, domain.Transaction{}, fmt.Errorf("RecordLoanPayment: saving: %w", err)
	}

	log := s.logFor(ctx, userID)
	log.Info().
		Str("loan_id", loanID).
		Str("transaction_id", tx.ID).
		Str("remaining", updated.RemainingAmount.String()).
		Str("status", string(updated.Status)).
		Msg("Loan payment recorded")
	return updated, tx, nil
}

// DeleteLoan removes a loan. Its payment transactions are kept.
func (s *Service) DeleteLoan(ctx context.Context, userID, id string) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.DeleteLoan(ctx, userID, id); err != nil {
		return fmt.Errorf("DeleteLoan: %w", err)
	}
	return nil
}
