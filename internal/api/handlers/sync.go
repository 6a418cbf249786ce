package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	"github.com/eshaffer321/ynab-reconcile/internal/application/service"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
)

// SyncHandler handles pulls and pushes.
type SyncHandler struct {
	*Base
	svc  *appsync.Service
	jobs *service.PullJobs
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(svc *appsync.Service, jobs *service.PullJobs) *SyncHandler {
	return &SyncHandler{
		Base: &Base{},
		svc:  svc,
		jobs: jobs,
	}
}

// Push handles POST /api/push - sends pending changes to YNAB.
// An empty body pushes for real.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req dto.PushRequest
	if err := h.DecodeJSON(w, r, &req, true); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	result, err := h.svc.Push(r.Context(), req.DryRun)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PushResponse{
		RunID:     result.RunID,
		DryRun:    result.DryRun,
		Pushed:    result.Pushed,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		PushedIDs: result.PushedIDs,
		Errors:    result.Errors,
		Pending:   toPendingResponses(result.Pending),
	})
}

// StartPull handles POST /api/pull - starts a background pull.
func (h *SyncHandler) StartPull(w http.ResponseWriter, r *http.Request) {
	var req dto.PullRequest
	if err := h.DecodeJSON(w, r, &req, true); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.SinceDays < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("since_days must not be negative"))
		return
	}

	jobID, err := h.jobs.StartPull(service.TriggerAPI, appsync.PullOptions{
		Full:      req.Full,
		SinceDays: req.SinceDays,
		DryRun:    req.DryRun,
		Fix:       req.Fix,
	})
	if errors.Is(err, service.ErrPullRunning) {
		h.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusAccepted, dto.StartPullResponse{
		JobID:  jobID,
		Status: string(service.StatusPending),
	})
}

// ListPulls handles GET /api/pull - lists pull jobs.
func (h *SyncHandler) ListPulls(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.ListJobs()

	response := dto.PullJobListResponse{
		Jobs:  make([]dto.PullJobResponse, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, toPullJobResponse(job))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// GetPull handles GET /api/pull/{jobId} - gets a pull job's status.
func (h *SyncHandler) GetPull(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(chi.URLParam(r, "jobId"))
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("pull job"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toPullJobResponse(job))
}

// CancelPull handles DELETE /api/pull/{jobId} - cancels a running pull.
func (h *SyncHandler) CancelPull(w http.ResponseWriter, r *http.Request) {
	err := h.jobs.CancelJob(chi.URLParam(r, "jobId"))
	if errors.Is(err, service.ErrJobNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("pull job"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "pull cancelled"})
}

func toPullJobResponse(job service.PullJob) dto.PullJobResponse {
	resp := dto.PullJobResponse{
		JobID:     job.ID,
		Trigger:   job.Trigger,
		Status:    string(job.Status),
		Full:      job.Options.Full,
		DryRun:    job.Options.DryRun,
		StartedAt: job.StartedAt.UTC().Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		completed := job.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	if job.Error != "" {
		msg := job.Error
		resp.Error = &msg
	}
	for _, source := range []string{appsync.SourceYNAB, appsync.SourceAmazon} {
		if result := job.Results[source]; result != nil {
			resp.Results = append(resp.Results, toPullResultResponse(result))
		}
	}
	return resp
}
