package handlers

import (
	"context"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/jobs"
	"github.com/dvloznov/pocket-pulse/internal/ledger"
	"github.com/dvloznov/pocket-pulse/internal/validate"
)

// DefaultPreviewCount is how many dates a preview lists unless ?count= is
// given.
const DefaultPreviewCount = 5

// maxPreviewCount caps ?count=.
const maxPreviewCount = 60

// RecurringService is the part of the ledger the recurring endpoints use.
type RecurringService interface {
	RecurringRules(ctx context.Context, userID string) ([]domain.RecurringRule, error)
	CreateRecurringRule(ctx context.Context, userID string, form validate.RecurringForm) (domain.RecurringRule, error)
	PauseRule(ctx context.Context, userID, id string) (domain.RecurringRule, error)
	ResumeRule(ctx context.Context, userID, id string) (domain.RecurringRule, error)
	DeleteRecurringRule(ctx context.Context, userID, id string) error
	PreviewRule(form validate.RecurringForm, n int) ([]civil.Date, error)
	UpcomingRecurring(ctx context.Context, userID string) ([]domain.RecurringRule, error)
	ProcessRecurring(ctx context.Context, userID string) (ledger.ProcessResult, error)
}

// RecurringHandler handles recurring rule endpoints.
type RecurringHandler struct {
	svc       RecurringService
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRecurringHandler creates a new recurring handler. When publisher is nil
// processing runs inside the request.
func NewRecurringHandler(svc RecurringService, publisher jobs.Publisher, log zerolog.Logger) *RecurringHandler {
	return &RecurringHandler{
		svc:       svc,
		publisher: publisher,
		log:       log,
	}
}

// ListRules handles GET /api/recurring
func (h *RecurringHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	rules, err := h.svc.RecurringRules(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list recurring rules")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}

// CreateRule handles POST /api/recurring
func (h *RecurringHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var form validate.RecurringForm
	if !decode(w, r, &form) {
		return
	}

	rule, err := h.svc.CreateRecurringRule(r.Context(), user, form)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create recurring rule")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, rule)
}

// Preview handles POST /api/recurring/preview?count=N
func (h *RecurringHandler) Preview(w http.ResponseWriter, r *http.Request) {
	n := DefaultPreviewCount
	if s := r.URL.Query().Get("count"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > maxPreviewCount {
			middleware.WriteValidation(w, map[string]string{"count": "must be between 1 and " + strconv.Itoa(maxPreviewCount)})
			return
		}
		n = v
	}

	var form validate.RecurringForm
	if !decode(w, r, &form) {
		return
	}

	dates, err := h.svc.PreviewRule(form, n)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to preview recurring rule")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
		"count": len(dates),
	})
}

// Upcoming handles GET /api/recurring/upcoming
func (h *RecurringHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	rules, err := h.svc.UpcomingRecurring(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list upcoming rules")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}

// Process handles POST /api/recurring/process. With a publisher the pass is
// queued and 202 returned; otherwise it runs inline.
func (h *RecurringHandler) Process(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if h.publisher != nil {
		job := &jobs.ProcessRecurringJob{UserID: user, Trigger: "api"}
		if err := h.publisher.PublishProcessRecurring(ctx, job); err != nil {
			writeServiceError(w, h.log, err, "Failed to enqueue recurring job")
			return
		}

		h.log.Info().Str("job_id", job.JobID).Str("user_id", user).Msg("Recurring job enqueued")
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
			"job_id": job.JobID,
			"status": string(job.Status),
		})
		return
	}

	res, err := h.svc.ProcessRecurring(ctx, user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to process recurring rules")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// PauseRule handles POST /api/recurring/{id}/pause
func (h *RecurringHandler) PauseRule(w http.ResponseWriter, r *http.Request, id string) {
	h.toggle(w, r, id, h.svc.PauseRule)
}

// ResumeRule handles POST /api/recurring/{id}/resume
func (h *RecurringHandler) ResumeRule(w http.ResponseWriter, r *http.Request, id string) {
	h.toggle(w, r, id, h.svc.ResumeRule)
}

func (h *RecurringHandler) toggle(w http.ResponseWriter, r *http.Request, id string,
	set func(ctx context.Context, userID, id string) (domain.RecurringRule, error)) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	rule, err := set(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update recurring rule")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/recurring/{id}
func (h *RecurringHandler) DeleteRule(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteRecurringRule(r.Context(), user, id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete recurring rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
