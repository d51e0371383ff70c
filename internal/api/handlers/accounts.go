package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// AccountService is the part of the ledger the account and budget
// endpoints use.
type AccountService interface {
	Accounts(ctx context.Context, userID string) ([]domain.Account, error)
	CreateAccount(ctx context.Context, userID string, form validate.AccountForm) (domain.Account, error)
	UpdateAccount(ctx context.Context, userID, id string, form validate.AccountForm) (domain.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error
	Budgets(ctx context.Context, userID string) ([]domain.Budget, error)
	UpdateBudgets(ctx context.Context, userID string, limits map[string]string) ([]domain.Budget, error)
}

// AccountsHandler handles account and budget endpoints.
type AccountsHandler struct {
	svc AccountService
	log zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(svc AccountService, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{svc: svc, log: log}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	accounts, err := h.svc.Accounts(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list accounts")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.AccountForm
	if !decode(w, r, &form) {
		return
	}

	a, err := h.svc.CreateAccount(r.Context(), user, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create account")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, a)
}

// UpdateAccount handles PUT /api/accounts/{id}
func (h *AccountsHandler) UpdateAccount(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.AccountForm
	if !decode(w, r, &form) {
		return
	}

	a, err := h.svc.UpdateAccount(r.Context(), user, id, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, a)
}

// DeleteAccount handles DELETE /api/accounts/{id}
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), user, id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBudgets handles GET /api/budgets
func (h *AccountsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	budgets, err := h.svc.Budgets(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list budgets")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"count":   len(budgets),
	})
}

// UpdateBudgets handles PUT /api/budgets. The body maps category to limit;
// an empty or zero limit removes the budget.
func (h *AccountsHandler) UpdateBudgets(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var limits map[string]string
	if !decode(w, r, &limits) {
		return
	}

	budgets, err := h.svc.UpdateBudgets(r.Context(), user, limits)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update budgets")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budgets": budgets,
		"count":   len(budgets),
	})
}
