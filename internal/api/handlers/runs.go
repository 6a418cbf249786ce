package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// RunsHandler handles sync run-related HTTP requests.
type RunsHandler struct {
	*Base
	svc *appsync.Service
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(svc *appsync.Service) *RunsHandler {
	return &RunsHandler{
		Base: &Base{},
		svc:  svc,
	}
}

// List handles GET /api/runs - returns recent pull and push runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", dto.DefaultSyncRunListParams().Limit)

	runs, err := h.svc.RecentRuns(r.Context(), limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.SyncRunListResponse{
		Runs:  make([]dto.SyncRunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toSyncRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run by ID.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.svc.Run(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("sync run"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toSyncRunResponse(*run))
}
