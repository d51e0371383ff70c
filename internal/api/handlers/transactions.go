package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/finance"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// TransactionService is the part of the ledger the transaction endpoints use.
type TransactionService interface {
	Dashboard(ctx context.Context, userID string) (ledger.Dashboard, error)
	Transactions(ctx context.Context, userID, search string, f finance.Filters) (ledger.TransactionList, error)
	AddTransaction(ctx context.Context, userID string, form validate.TransactionForm) (domain.Transaction, error)
	EditTransaction(ctx context.Context, userID, id string, form validate.TransactionForm) (domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// TransactionsHandler handles the dashboard and transaction endpoints.
type TransactionsHandler struct {
	svc TransactionService
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc TransactionService, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		svc: svc,
		log: log,
	}
}

// Dashboard handles GET /api/dashboard
func (h *TransactionsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	d, err := h.svc.Dashboard(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build dashboard")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, d)
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filters, errs := ParseFilters(query)
	if len(errs) > 0 {
		middleware.WriteValidation(w, errs)
		return
	}

	list, err := h.svc.Transactions(r.Context(), user, query.Get("q"), filters)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": list.Transactions,
		"summary":      list.Summary,
		"count":        len(list.Transactions),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.TransactionForm
	if !decode(w, r, &form) {
		return
	}

	tx, err := h.svc.AddTransaction(r.Context(), user, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.TransactionForm
	if !decode(w, r, &form) {
		return
	}

	tx, err := h.svc.EditTransaction(r.Context(), user, id, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteTransaction(r.Context(), user, id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ParseFilters reads the structured transaction filters from a query
// string. type=all and empty values impose no constraint.
func ParseFilters(q url.Values) (finance.Filters, validate.Errors) {
	errs := validate.Errors{}
	f := finance.Filters{
		Category: strings.TrimSpace(q.Get("category")),
		Account:  strings.TrimSpace(q.Get("account")),
	}

	if t := strings.TrimSpace(q.Get("type")); t != "" && t != "all" {
		f.Type = domain.TransactionType(t)
		if !f.Type.Valid() {
			errs["type"] = "unknown transaction type"
		}
	}

	for _, p := range []struct {
		key string
		dst **civil.Date
	}{
		{"date_from", &f.DateFrom},
		{"date_to", &f.DateTo},
	} {
		s := q.Get(p.key)
		if strings.TrimSpace(s) == "" {
			continue
		}
		d, ok := validate.Date(s)
		if !ok {
			errs[p.key] = "must be a date in YYYY-MM-DD format"
			continue
		}
		*p.dst = &d
	}

	for _, p := range []struct {
		key string
		dst *decimal.NullDecimal
	}{
		{"amount_min", &f.AmountMin},
		{"amount_max", &f.AmountMax},
	} {
		s := q.Get(p.key)
		if strings.TrimSpace(s) == "" {
			continue
		}
		d, ok := validate.Number(s)
		if !ok {
			errs[p.key] = "must be a number"
			continue
		}
		*p.dst = decimal.NewNullDecimal(d)
	}

	return f, errs
}
