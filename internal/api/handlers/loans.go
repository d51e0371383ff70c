package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/loans"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// LoanService is the part of the ledger the loan endpoints use.
type LoanService interface {
	Loans(ctx context.Context, userID string) ([]domain.Loan, error)
	CreateLoan(ctx context.Context, userID string, form validate.LoanForm) (domain.Loan, error)
	RecordLoanPayment(ctx context.Context, userID, loanID string, form validate.PaymentForm) (domain.Loan, domain.Transaction, error)
	DeleteLoan(ctx context.Context, userID, id string) error
}

// LoansHandler handles loan endpoints.
type LoansHandler struct {
	svc LoanService
	log zerolog.Logger
}

// NewLoansHandler creates a new loans handler.
func NewLoansHandler(svc LoanService, log zerolog.Logger) *LoansHandler {
	return &LoansHandler{svc: svc, log: log}
}

// ListLoans handles GET /api/loans. ?active=true hides paid off loans.
func (h *LoansHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	all, err := h.svc.Loans(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list loans")
		return
	}

	list := all
	if r.URL.Query().Get("active") == "true" {
		list = loans.Active(all)
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"loans":  list,
		"count":  len(list),
		"totals": loans.Summarize(all),
	})
}

// CreateLoan handles POST /api/loans
func (h *LoansHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.LoanForm
	if !decode(w, r, &form) {
		return
	}

	loan, err := h.svc.CreateLoan(r.Context(), user, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create loan")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, loan)
}

// RecordPayment handles POST /api/loans/{id}/payments
func (h *LoansHandler) RecordPayment(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.PaymentForm
	if !decode(w, r, &form) {
		return
	}

	loan, tx, err := h.svc.RecordLoanPayment(r.Context(), user, id, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to record loan payment")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"loan":        loan,
		"transaction": tx,
	})
}

// DeleteLoan handles DELETE /api/loans/{id}
func (h *LoansHandler) DeleteLoan(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteLoan(r.Context(), user, id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete loan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
