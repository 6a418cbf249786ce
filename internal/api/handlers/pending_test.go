package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	"github.com/eshaffer321/ynab-reconcile/internal/api/handlers"
)

func TestPendingHandler_Create(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "creates pending change",
			body:         dto.CategorizeRequest{TransactionID: "t1", CategoryID: "cat-books", CategoryName: "Books"},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "missing transaction id",
			body:         dto.CategorizeRequest{CategoryID: "cat-books"},
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeValidation,
		},
		{
			name:         "missing category",
			body:         dto.CategorizeRequest{TransactionID: "t1"},
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeValidation,
		},
		{
			name:         "unknown transaction",
			body:         dto.CategorizeRequest{TransactionID: "missing", CategoryID: "cat-books"},
			expectedCode: http.StatusNotFound,
			expectedErr:  dto.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t)
			seedTransaction(t, repo, "t1", "2026-10-03", -25.99)
			handler := handlers.NewPendingHandler(svc)

			rec := httptest.NewRecorder()
			handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/pending", jsonBody(t, tt.body)))

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedErr != "" {
				var apiErr dto.APIError
				decode(t, rec, &apiErr)
				assert.Equal(t, tt.expectedErr, apiErr.Code)
				return
			}

			var response dto.CategorizeResponse
			decode(t, rec, &response)
			assert.Equal(t, "created", response.Outcome)
		})
	}

	t.Run("invalid body", func(t *testing.T) {
		svc, _, _ := newService(t)
		handler := handlers.NewPendingHandler(svc)

		rec := httptest.NewRecorder()
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/pending", strings.NewReader("{")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		svc, _, _ := newService(t)
		handler := handlers.NewPendingHandler(svc)

		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"transaction_id":"t1","category":"cat-books"}`)
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/pending", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPendingHandler_ListAndDelete(t *testing.T) {
	svc, repo, _ := newService(t)
	seedTransaction(t, repo, "t1", "2026-10-03", -25.99)
	handler := handlers.NewPendingHandler(svc)

	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/pending",
		jsonBody(t, dto.CategorizeRequest{TransactionID: "t1", CategoryID: "cat-books", CategoryName: "Books"})))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/pending", nil))
	var list dto.PendingListResponse
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "t1", list.Changes[0].TransactionID)
	assert.Equal(t, "2026-10-03", list.Changes[0].Date)
	assert.Equal(t, "Amazon.com", list.Changes[0].PayeeName)
	assert.Equal(t, "Books", list.Changes[0].NewCategoryName)

	rec = httptest.NewRecorder()
	handler.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/pending/t1", nil), "id", "t1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/pending/t1", nil), "id", "t1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
