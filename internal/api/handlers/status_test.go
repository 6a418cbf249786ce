package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	"github.com/eshaffer321/ynab-reconcile/internal/api/handlers"
)

func TestStatusHandler_Get(t *testing.T) {
	svc, repo, _ := newService(t)
	seedTransaction(t, repo, "t1", "2026-10-03", -25.99)
	seedOrder(t, repo, "111-1", "2026-10-01", 25.99, "Book", "Pen")
	require.NoError(t, repo.UpdateSyncState(context.Background(), "ynab", day("2026-10-10"), 1))

	rec := httptest.NewRecorder()
	handlers.NewStatusHandler(svc).Get(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var response dto.StatusResponse
	decode(t, rec, &response)

	assert.Equal(t, 1, response.YNAB.Count)
	assert.Equal(t, "2026-10-10", response.YNAB.LastSyncDate)
	assert.NotEmpty(t, response.YNAB.LastSyncAt)
	assert.Empty(t, response.Amazon.LastSyncDate)
	assert.Equal(t, 1, response.Amazon.Count)
	assert.Equal(t, 1, response.Uncategorized)
	assert.Equal(t, 2, response.OrderItems)
}
