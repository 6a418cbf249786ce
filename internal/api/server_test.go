package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	"github.com/eshaffer321/ynab-reconcile/internal/api"
	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// echoBudget accepts every category update
type echoBudget struct{}

func (echoBudget) GetTransactions(context.Context, time.Time) ([]ynab.Transaction, error) {
	return nil, nil
}

func (echoBudget) UpdateTransactionCategory(_ context.Context, id, categoryID string, approve bool) (*ynab.Transaction, error) {
	return &ynab.Transaction{ID: id, CategoryID: categoryID, Approved: approve}, nil
}

func newTestServer(t *testing.T, repo storage.Repository) *api.Server {
	t.Helper()
	logger := logging.NewNopLogger()
	svc := appsync.NewService(repo, echoBudget{}, nil, appsync.DefaultSettings(), nil, logger)
	return api.NewServer(api.DefaultConfig(), svc, nil, nil, logger) // nil jobs: no pull endpoints
}

func serve(server *api.Server, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())

	rec := serve(server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "ok", response.Database)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())

	serve(server, http.MethodGet, "/api/status", "")
	rec := serve(server, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `reconcile_http_requests_total{code="2xx",route="/api/status"} 1`)
}

func TestServer_Routes(t *testing.T) {
	tests := []struct {
		method       string
		path         string
		expectedCode int
	}{
		{http.MethodGet, "/api/match", http.StatusOK},
		{http.MethodGet, "/api/pending", http.StatusOK},
		{http.MethodDelete, "/api/pending/missing", http.StatusNotFound},
		{http.MethodPost, "/api/push", http.StatusOK},
		{http.MethodGet, "/api/runs", http.StatusOK},
		{http.MethodGet, "/api/runs/missing", http.StatusNotFound},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodPost, "/api/pull", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	server := newTestServer(t, storage.NewMockRepository())
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(server, tt.method, tt.path, "")
			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	server := newTestServer(t, storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodOptions, "/api/pending", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
