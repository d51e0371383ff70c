package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pocket-pulse/internal/api/middleware"
	"github.com/dvloznov/pocket-pulse/internal/jobs"
)

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}. Jobs of other users are reported as
// missing.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get job")
		return
	}
	if job.UserID != user {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: user,
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
