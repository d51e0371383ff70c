package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/advisor"
	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// SnapshotService loads a consistent copy of one user's ledger.
type SnapshotService interface {
	Snapshot(ctx context.Context, userID string) (domain.Ledger, error)
}

// AdviceHandler handles POST /api/advice.
type AdviceHandler struct {
	svc     SnapshotService
	advisor advisor.Advisor
	log     zerolog.Logger
}

// NewAdviceHandler creates a new advice handler. A nil advisor disables the
// endpoint.
func NewAdviceHandler(svc SnapshotService, a advisor.Advisor, log zerolog.Logger) *AdviceHandler {
	return &AdviceHandler{svc: svc, advisor: a, log: log}
}

// Advise handles POST /api/advice
func (h *AdviceHandler) Advise(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if h.advisor == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Advice is not configured")
		return
	}
	ctx := r.Context()

	l, err := h.svc.Snapshot(ctx, user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load ledger")
		return
	}
	if len(l.Transactions) == 0 {
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Add some transactions first")
		return
	}

	advice, err := h.advisor.Advise(ctx, advisor.BuildPrompt(l.Transactions))
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user).Msg("Failed to generate advice")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to generate advice")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"advice": advice})
}
