package ynab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/resilience"
)

const transactionsJSON = `{
  "data": {
    "server_knowledge": 42,
    "transactions": [
      {
        "id": "t1", "date": "2024-03-02", "amount": -42170, "memo": null,
        "cleared": "cleared", "approved": false, "account_id": "acc-1", "account_name": "Visa",
        "payee_id": "p-1", "payee_name": "Amazon.com", "category_id": null, "category_name": null,
        "deleted": false, "subtransactions": []
      },
      {
        "id": "t2", "date": "2024-03-05", "amount": -100000, "memo": "split",
        "cleared": "uncleared", "approved": true, "account_id": "acc-1", "account_name": "Visa",
        "payee_id": "p-1", "payee_name": "Amazon.com", "category_id": "split-cat", "category_name": "Split",
        "deleted": false,
        "subtransactions": [{"id": "s1", "amount": -50000, "category_id": "c1"}, {"id": "s2", "amount": -50000, "category_id": "c2"}]
      },
      {
        "id": "t3", "date": "2024-03-06", "amount": -1000, "cleared": "cleared", "approved": true,
        "account_id": "acc-1", "account_name": "Visa", "deleted": true
      }
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient("secret-token",
		WithBaseURL(server.URL),
		WithRetry(resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}),
		WithLogger(logging.NewNopLogger()),
	)
}

func TestGetTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/budgets/last-used/transactions", r.URL.Path)
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("since_date"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(transactionsJSON))
	})

	txns, err := client.GetTransactions(context.Background(), time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, txns, 2, "deleted transactions are dropped")

	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, -42.17, txns[0].Amount)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "Amazon.com", txns[0].PayeeName)
	assert.Empty(t, txns[0].CategoryID)
	assert.False(t, txns[0].IsSplit)

	assert.True(t, txns[1].IsSplit)
	assert.Equal(t, -100.0, txns[1].Amount)
	assert.Equal(t, "split", txns[1].Memo)
}

func TestGetTransactions_NoSinceFetchesAll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"data":{"transactions":[],"server_knowledge":1}}`))
	})

	txns, err := client.GetTransactions(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestGetTransactions_BudgetID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/budgets/budget-123/transactions", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"transactions":[]}}`))
	}))
	defer server.Close()

	client := NewClient("tok", WithBaseURL(server.URL), WithBudgetID("budget-123"), WithLogger(logging.NewNopLogger()))
	assert.Equal(t, "budget-123", client.BudgetID())

	_, err := client.GetTransactions(context.Background(), time.Time{})
	require.NoError(t, err)
}

func TestGetTransactions_Unauthorized(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"id":"401","name":"unauthorized","detail":"Unauthorized"}}`))
	})

	_, err := client.GetTransactions(context.Background(), time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures are not retried")
}

func TestGetTransactions_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"transactions":[]}}`))
	})

	_, err := client.GetTransactions(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetTransactions_BadRequestDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"id":"400","name":"bad_request","detail":"since_date is invalid"}}`))
	})

	_, err := client.GetTransactions(context.Background(), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "since_date is invalid")
}

func TestUpdateTransactionCategory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/budgets/last-used/transactions/t1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body updateTransactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cat-books", body.Transaction.CategoryID)
		assert.True(t, body.Transaction.Approved)

		_, _ = w.Write([]byte(`{"data":{"transaction":{
			"id":"t1","date":"2024-03-02","amount":-42170,"approved":true,
			"category_id":"cat-books","category_name":"Books","payee_name":"Amazon.com"}}}`))
	})

	txn, err := client.UpdateTransactionCategory(context.Background(), "t1", "cat-books", true)
	require.NoError(t, err)
	assert.Equal(t, "cat-books", txn.CategoryID)
	assert.Equal(t, "Books", txn.CategoryName)
	assert.True(t, txn.Approved)
}

func TestUpdateTransactionCategory_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.UpdateTransactionCategory(context.Background(), "gone", "cat", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMilliunitsToAmount(t *testing.T) {
	assert.Equal(t, 1.0, MilliunitsToAmount(1000))
	assert.Equal(t, -12.34, MilliunitsToAmount(-12340))
	assert.Equal(t, 0.0, MilliunitsToAmount(0))
}
