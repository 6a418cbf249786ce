package handlers

import (
	"net/http"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
)

// StatusHandler reports what the local store holds.
type StatusHandler struct {
	*Base
	svc *appsync.Service
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(svc *appsync.Service) *StatusHandler {
	return &StatusHandler{
		Base: &Base{},
		svc:  svc,
	}
}

// Get handles GET /api/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.StatusResponse{
		YNAB:          toSourceStatusResponse(status.YNAB),
		Amazon:        toSourceStatusResponse(status.Amazon),
		Uncategorized: status.Uncategorized,
		Conflicts:     status.Conflicts,
		PendingPush:   status.PendingPush,
		OrderItems:    status.OrderItems,
	})
}
