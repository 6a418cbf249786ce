package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// stubBudget echoes category updates back and records them
type stubBudget struct {
	mu      sync.Mutex
	txns    []ynab.Transaction
	updated []string
	err     error
}

func (s *stubBudget) GetTransactions(_ context.Context, _ time.Time) ([]ynab.Transaction, error) {
	return s.txns, s.err
}

func (s *stubBudget) UpdateTransactionCategory(_ context.Context, id, categoryID string, approve bool) (*ynab.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.updated = append(s.updated, id)
	return &ynab.Transaction{ID: id, CategoryID: categoryID, Approved: approve}, nil
}

func newService(t *testing.T) (*appsync.Service, *storage.MockRepository, *stubBudget) {
	t.Helper()
	repo := storage.NewMockRepository()
	budget := &stubBudget{}
	svc := appsync.NewService(repo, budget, nil, appsync.DefaultSettings(), nil, logging.NewNopLogger())
	return svc, repo, budget
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedTransaction(t *testing.T, repo *storage.MockRepository, id, date string, amount float64) {
	t.Helper()
	_, _, err := repo.UpsertTransaction(context.Background(), &storage.Transaction{
		ID: id, Date: day(date), Amount: amount, PayeeName: "Amazon.com",
	})
	require.NoError(t, err)
}

func seedOrder(t *testing.T, repo *storage.MockRepository, id, date string, total float64, items ...string) {
	t.Helper()
	ctx := context.Background()
	order := &storage.Order{OrderID: id, OrderDate: day(date), Total: total}
	for _, name := range items {
		order.Items = append(order.Items, storage.OrderItem{Name: name, Price: total, Quantity: 1})
	}
	_, _, err := repo.CacheOrder(ctx, order)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertOrderItems(ctx, id, order.Items))
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// withURLParam attaches a chi route parameter to a request
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}
