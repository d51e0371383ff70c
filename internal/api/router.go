// Package api assembles the HTTP surface of the ledger: routes, handlers
// and the middleware chain.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/advisor"
	"github.com/dvloznov/pocket-pulse/internal/api/handlers"
	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/jobs"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
)

// Deps are the collaborators of the HTTP server. Publisher, Jobs and
// Advisor are optional.
type Deps struct {
	Ledger    *ledger.Service
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Advisor   advisor.Advisor
	Log       zerolog.Logger
	Now       func() time.Time
}

// methods dispatches on the request method and answers 405 for the rest.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// withID adapts a handler taking the {id} path value.
func withID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "ID is required")
			return
		}
		h(w, r, id)
	}
}

// NewRouter builds the mux and wraps it in the middleware chain.
func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}

	txs := handlers.NewTransactionsHandler(d.Ledger, d.Log)
	accounts := handlers.NewAccountsHandler(d.Ledger, d.Log)
	rec := handlers.NewRecurringHandler(d.Ledger, d.Publisher, d.Log)
	loanH := handlers.NewLoansHandler(d.Ledger, d.Log)
	advice := handlers.NewAdviceHandler(d.Ledger, d.Advisor, d.Log)

	mux := http.NewServeMux()

	mux.Handle("/api/dashboard", methods{http.MethodGet: txs.Dashboard})

	// Transactions endpoints
	mux.Handle("/api/transactions", methods{
		http.MethodGet:  txs.ListTransactions,
		http.MethodPost: txs.CreateTransaction,
	})
	mux.Handle("/api/transactions/{id}", methods{
		http.MethodPut:    withID(txs.UpdateTransaction),
		http.MethodDelete: withID(txs.DeleteTransaction),
	})

	// Accounts and budgets
	mux.Handle("/api/accounts", methods{
		http.MethodGet:  accounts.ListAccounts,
		http.MethodPost: accounts.CreateAccount,
	})
	mux.Handle("/api/accounts/{id}", methods{
		http.MethodPut:    withID(accounts.UpdateAccount),
		http.MethodDelete: withID(accounts.DeleteAccount),
	})
	mux.Handle("/api/budgets", methods{
		http.MethodGet: accounts.ListBudgets,
		http.MethodPut: accounts.UpdateBudgets,
	})

	// Recurring rules
	mux.Handle("/api/recurring", methods{
		http.MethodGet:  rec.ListRules,
		http.MethodPost: rec.CreateRule,
	})
	mux.Handle("/api/recurring/preview", methods{http.MethodPost: rec.Preview})
	mux.Handle("/api/recurring/process", methods{http.MethodPost: rec.Process})
	mux.Handle("/api/recurring/upcoming", methods{http.MethodGet: rec.Upcoming})
	mux.Handle("/api/recurring/{id}", methods{http.MethodDelete: withID(rec.DeleteRule)})
	mux.Handle("/api/recurring/{id}/pause", methods{http.MethodPost: withID(rec.PauseRule)})
	mux.Handle("/api/recurring/{id}/resume", methods{http.MethodPost: withID(rec.ResumeRule)})

	// Loans
	mux.Handle("/api/loans", methods{
		http.MethodGet:  loanH.ListLoans,
		http.MethodPost: loanH.CreateLoan,
	})
	mux.Handle("/api/loans/{id}", methods{http.MethodDelete: withID(loanH.DeleteLoan)})
	mux.Handle("/api/loans/{id}/payments", methods{http.MethodPost: withID(loanH.RecordPayment)})

	mux.Handle("/api/advice", methods{http.MethodPost: advice.Advise})

	// Jobs endpoints
	if d.Jobs != nil {
		jobsH := handlers.NewJobsHandler(d.Jobs, d.Log)
		mux.Handle("/api/jobs", methods{http.MethodGet: jobsH.ListJobs})
		mux.Handle("/api/jobs/{id}", methods{http.MethodGet: withID(jobsH.GetJob)})
	}

	// Health check endpoint
	mux.Handle("/health", handlers.Health(d.Now))

	return middleware.Recovery(d.Log)(
		middleware.Logger(d.Log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth("/health")(mux),
				),
			),
		),
	)
}
