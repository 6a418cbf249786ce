package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// MockBudgetClient for testing
type MockBudgetClient struct {
	mock.Mock
}

func (m *MockBudgetClient) GetTransactions(ctx context.Context, since time.Time) ([]ynab.Transaction, error) {
	args := m.Called(ctx, since)
	if txns := args.Get(0); txns != nil {
		return txns.([]ynab.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBudgetClient) UpdateTransactionCategory(ctx context.Context, transactionID, categoryID string, approve bool) (*ynab.Transaction, error) {
	args := m.Called(ctx, transactionID, categoryID, approve)
	if txn := args.Get(0); txn != nil {
		return txn.(*ynab.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOrderProvider for testing
type MockOrderProvider struct {
	mock.Mock
}

func (m *MockOrderProvider) Name() string {
	return "amazon"
}

func (m *MockOrderProvider) FetchOrders(ctx context.Context, opts providers.FetchOptions) ([]*providers.Order, error) {
	args := m.Called(ctx, opts)
	if orders := args.Get(0); orders != nil {
		return orders.([]*providers.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderProvider) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc    *Service
	repo   *storage.MockRepository
	budget *MockBudgetClient
	orders *MockOrderProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:   storage.NewMockRepository(),
		budget: new(MockBudgetClient),
		orders: new(MockOrderProvider),
	}
	env.svc = NewService(env.repo, env.budget, env.orders, DefaultSettings(), metrics.New(), logging.NewNopLogger())
	env.svc.now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		env.budget.AssertExpectations(t)
		env.orders.AssertExpectations(t)
	})
	return env
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func sameInstant(want time.Time) any {
	return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
}

// seedTransaction stores a transaction directly in the mock repository
func (e *testEnv) seedTransaction(t *testing.T, txn storage.Transaction) {
	t.Helper()
	_, _, err := e.repo.UpsertTransaction(context.Background(), &txn)
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func (e *testEnv) seedOrder(t *testing.T, id, date string, total float64, items ...string) {
	t.Helper()
	ctx := context.Background()
	order := &storage.Order{OrderID: id, OrderDate: day(date), Total: total}
	for _, name := range items {
		order.Items = append(order.Items, storage.OrderItem{Name: name, Price: total, Quantity: 1})
	}
	if _, _, err := e.repo.CacheOrder(ctx, order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if err := e.repo.UpsertOrderItems(ctx, id, order.Items); err != nil {
		t.Fatalf("seed items: %v", err)
	}
}
