package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// =============================================================================
// API Integration Tests
// =============================================================================
// These tests use a real SQLite database to test the full stack:
// HTTP request → Router → Handlers → Service → Storage → SQLite

func createTestServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "api.db"), logging.NewNopLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(newTestServer(t, store).Router())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return ts, store
}

func mustDate(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestAPI_Integration_CategorizeAndPush(t *testing.T) {
	ts, store := createTestServer(t)
	ctx := context.Background()

	_, _, err := store.UpsertTransaction(ctx, &storage.Transaction{
		ID: "t1", Date: mustDate("2026-10-03"), Amount: -25.99, PayeeName: "Amazon.com",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/pending", "application/json",
		strings.NewReader(`{"transaction_id":"t1","category_id":"cat-books","category_name":"Books"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/pending")
	require.NoError(t, err)
	var list dto.PendingListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Amazon.com", list.Changes[0].PayeeName)

	resp, err = http.Post(ts.URL+"/api/push", "application/json", nil)
	require.NoError(t, err)
	var push dto.PushResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&push))
	resp.Body.Close()
	assert.Equal(t, 1, push.Succeeded)

	txn, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-books", txn.CategoryID)
	assert.Equal(t, storage.StatusSynced, txn.SyncStatus)

	resp, err = http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	var runs dto.SyncRunListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	resp.Body.Close()
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, "push", runs.Runs[0].Source)
	assert.Equal(t, 1, runs.Runs[0].Updated)
}

func TestAPI_Integration_Match(t *testing.T) {
	ts, store := createTestServer(t)
	ctx := context.Background()

	_, _, err := store.UpsertTransaction(ctx, &storage.Transaction{
		ID: "t1", Date: mustDate("2026-10-03"), Amount: -25.99, PayeeName: "AMAZON MKTPL",
	})
	require.NoError(t, err)
	_, _, err = store.CacheOrder(ctx, &storage.Order{OrderID: "111-1", OrderDate: mustDate("2026-10-01"), Total: 25.99})
	require.NoError(t, err)
	require.NoError(t, store.UpsertOrderItems(ctx, "111-1", []storage.OrderItem{{Name: "Book", Price: 25.99, Quantity: 1}}))

	resp, err := http.Get(ts.URL + "/api/match")
	require.NoError(t, err)
	defer resp.Body.Close()

	var match dto.MatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&match))
	require.Len(t, match.Stage1Matches, 1)
	assert.Equal(t, []string{"Book"}, match.Stage1Matches[0].Order.Items)
}

func TestAPI_Integration_Status(t *testing.T) {
	ts, _ := createTestServer(t)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status dto.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 0, status.YNAB.Count)
}

func TestAPI_Integration_CORS(t *testing.T) {
	ts, _ := createTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
