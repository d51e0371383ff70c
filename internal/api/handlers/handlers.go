// Package handlers implements the HTTP endpoints over the ledger service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/jobs"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// userID returns the authenticated user or writes a 401.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.UserHeader+" header is required")
	}
	return id, ok
}

// decode reads a JSON body into v or writes a 400.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps ledger errors onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500 with msg.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	var fields validate.Errors
	switch {
	case errors.As(err, &fields):
		middleware.WriteValidation(w, fields)
	case errors.Is(err, ledger.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, jobs.ErrQueueClosed):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Job queue is not accepting work")
	default:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// Health handles GET /health
func Health(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   now().Format(time.RFC3339),
		})
	}
}
