package handlers

import (
	"bytes"
	"net/http"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MatchHandler runs the matcher over the local store.
type MatchHandler struct {
	*Base
	svc *appsync.Service
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(svc *appsync.Service) *MatchHandler {
	return &MatchHandler{
		Base: &Base{},
		svc:  svc,
	}
}

// Get handles GET /api/match?since_days=N&uncategorized=true&format=xlsx
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := dto.MatchParams{
		SinceDays:         ParseIntParam(r, "since_days", 0),
		UncategorizedOnly: ParseBoolParam(r, "uncategorized", false),
	}
	if params.SinceDays < 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("since_days must not be negative"))
		return
	}

	rep, err := h.svc.Match(r.Context(), appsync.MatchOptions{
		Since:             h.svc.SinceDays(params.SinceDays),
		UncategorizedOnly: params.UncategorizedOnly,
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	cfg := h.svc.Settings().Matcher
	opts := report.TextOptions{Stage1Window: cfg.Stage1Window, Stage2Window: cfg.Stage2Window}

	if r.URL.Query().Get("format") == "xlsx" {
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, rep.Result, opts); err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="amazon-match.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	h.WriteJSON(w, http.StatusOK, toMatchResponse(rep, opts))
}
