package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// PendingHandler handles local category edits.
type PendingHandler struct {
	*Base
	svc *appsync.Service
}

// NewPendingHandler creates a new pending changes handler.
func NewPendingHandler(svc *appsync.Service) *PendingHandler {
	return &PendingHandler{
		Base: &Base{},
		svc:  svc,
	}
}

// List handles GET /api/pending - returns changes waiting to be pushed.
func (h *PendingHandler) List(w http.ResponseWriter, r *http.Request) {
	changes, err := h.svc.ListPending(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PendingListResponse{
		Changes: toPendingResponses(changes),
		Count:   len(changes),
	})
}

// Create handles POST /api/pending - records a category change.
func (h *PendingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CategorizeRequest
	if err := h.DecodeJSON(w, r, &req, false); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.TransactionID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("transaction_id is required"))
		return
	}

	outcome, err := h.svc.Categorize(r.Context(), appsync.CategorizeRequest{
		TransactionID: req.TransactionID,
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		Approve:       req.Approve,
	})
	switch {
	case errors.Is(err, appsync.ErrEmptyCategory):
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	case errors.Is(err, storage.ErrNotFound):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		return
	case err != nil:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	status := http.StatusOK
	if outcome == storage.PendingCreated {
		status = http.StatusCreated
	}
	h.WriteJSON(w, status, dto.CategorizeResponse{
		TransactionID: req.TransactionID,
		Outcome:       string(outcome),
	})
}

// Delete handles DELETE /api/pending/{id} - discards a pending change.
func (h *PendingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction ID is required"))
		return
	}

	err := h.svc.Undo(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("pending change"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "pending change discarded"})
}
