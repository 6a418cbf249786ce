package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	Base
	db Pinger
}

// NewHealthHandler creates a new health handler. db may be nil to skip the database check.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles the health check request.
// Returns 503 with status "degraded" when the database does not answer.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := dto.NewHealthResponse()
	if h.db == nil {
		h.WriteJSON(w, http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		response.Status = "degraded"
		response.Database = "unreachable"
		h.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response.Database = "ok"
	h.WriteJSON(w, http.StatusOK, response)
}
