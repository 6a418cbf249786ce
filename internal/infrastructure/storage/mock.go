package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu           sync.Mutex
	orders       map[string]*Order
	transactions map[string]*Transaction
	pending      map[string]*PendingChange
	syncStates   map[string]*SyncState
	syncRuns     map[string]*SyncRun
	runOrder     []string
	nextChangeID int64

	// Hooks for test assertions
	CacheOrderCalls      int
	UpsertCalls          int
	ApplyCalls           []string
	LastCompletedCounts  RunCounts
	GetOrdersRangeCalled bool

	// Error injection for testing error paths
	CacheOrderErr      error
	UpsertErr          error
	GetTransactionsErr error
	GetOrdersErr       error
	SetPendingErr      error
	ApplyPendingErr    error
	SyncStateErr       error
	StartSyncRunErr    error
	PingErr            error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		orders:       make(map[string]*Order),
		transactions: make(map[string]*Transaction),
		pending:      make(map[string]*PendingChange),
		syncStates:   make(map[string]*SyncState),
		syncRuns:     make(map[string]*SyncRun),
		nextChangeID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// CacheOrder stores an order header
func (m *MockRepository) CacheOrder(_ context.Context, order *Order) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CacheOrderCalls++
	if m.CacheOrderErr != nil {
		return false, false, m.CacheOrderErr
	}

	existing, ok := m.orders[order.OrderID]
	if !ok {
		copied := *order
		copied.Items = nil
		m.orders[order.OrderID] = &copied
		return true, true, nil
	}

	if formatDate(existing.OrderDate) == formatDate(order.OrderDate) && existing.Total == order.Total {
		return false, false, nil
	}
	existing.OrderDate = order.OrderDate
	existing.Total = order.Total
	return false, true, nil
}

// UpsertOrderItems replaces an order's items
func (m *MockRepository) UpsertOrderItems(_ context.Context, orderID string, items []OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	order.Items = append([]OrderItem(nil), items...)
	return nil
}

// GetCachedOrder retrieves an order
func (m *MockRepository) GetCachedOrder(_ context.Context, orderID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	copied := *order
	return &copied, nil
}

// GetCachedOrdersByDateRange returns orders within [start, end], newest first
func (m *MockRepository) GetCachedOrdersByDateRange(_ context.Context, start, end time.Time) ([]matcher.OrderCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetOrdersRangeCalled = true
	if m.GetOrdersErr != nil {
		return nil, m.GetOrdersErr
	}

	from, to := formatDate(start), formatDate(end)
	var entries []matcher.OrderCacheEntry
	for _, order := range m.orders {
		d := formatDate(order.OrderDate)
		if d < from || d > to {
			continue
		}
		entry := matcher.OrderCacheEntry{
			OrderID:   order.OrderID,
			OrderDate: order.OrderDate,
			Total:     order.Total,
		}
		for _, item := range order.Items {
			entry.Items = append(entry.Items, item.Name)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OrderDate.Equal(entries[j].OrderDate) {
			return entries[i].OrderDate.After(entries[j].OrderDate)
		}
		return entries[i].OrderID < entries[j].OrderID
	})
	return entries, nil
}

// GetOrderCount returns the number of orders
func (m *MockRepository) GetOrderCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), nil
}

// UpsertTransaction stores a transaction, keeping pending categories
func (m *MockRepository) UpsertTransaction(_ context.Context, txn *Transaction) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.UpsertErr != nil {
		return false, false, m.UpsertErr
	}

	copied := *txn
	existing, ok := m.transactions[txn.ID]
	if !ok {
		copied.SyncStatus = StatusSynced
		m.transactions[txn.ID] = &copied
		return true, true, nil
	}

	pending, hasPending := m.pending[txn.ID]
	conflict := !hasPending && existing.CategoryID != "" && txn.CategoryID == ""

	copied.SyncStatus = StatusSynced
	switch {
	case hasPending:
		copied.CategoryID, copied.CategoryName = pending.NewCategoryID, pending.NewCategoryName
		copied.SyncStatus = StatusPendingPush
	case conflict:
		copied.CategoryID, copied.CategoryName = existing.CategoryID, existing.CategoryName
		copied.SyncStatus = StatusConflict
	}

	changed := formatDate(existing.Date) != formatDate(copied.Date) ||
		existing.Amount != copied.Amount ||
		existing.PayeeName != copied.PayeeName ||
		existing.CategoryID != copied.CategoryID ||
		existing.Memo != copied.Memo ||
		existing.Approved != copied.Approved ||
		existing.SyncStatus != copied.SyncStatus
	m.transactions[txn.ID] = &copied
	return false, changed, nil
}

// GetTransaction retrieves a transaction
func (m *MockRepository) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	copied := *txn
	return &copied, nil
}

// GetTransactions returns filtered transactions, newest first
func (m *MockRepository) GetTransactions(_ context.Context, filter TransactionFilter) ([]*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetTransactionsErr != nil {
		return nil, m.GetTransactionsErr
	}

	var result []*Transaction
	for _, txn := range m.transactions {
		if filter.PayeeContains != "" &&
			!strings.Contains(strings.ToLower(txn.PayeeName), strings.ToLower(filter.PayeeContains)) {
			continue
		}
		if !filter.Since.IsZero() && formatDate(txn.Date) < formatDate(filter.Since) {
			continue
		}
		if filter.UncategorizedOnly && txn.CategoryID != "" {
			continue
		}
		copied := *txn
		result = append(result, &copied)
	}

	sortTransactions(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetTransactionCount returns the number of transactions
func (m *MockRepository) GetTransactionCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions), nil
}

// GetConflicts returns conflicted transactions
func (m *MockRepository) GetConflicts(_ context.Context) ([]*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*Transaction
	for _, txn := range m.transactions {
		if txn.SyncStatus == StatusConflict {
			copied := *txn
			result = append(result, &copied)
		}
	}
	sortTransactions(result)
	return result, nil
}

// SetPendingChange records a pending change
func (m *MockRepository) SetPendingChange(_ context.Context, change *PendingChange) (PendingOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetPendingErr != nil {
		return "", m.SetPendingErr
	}

	existing, ok := m.pending[change.TransactionID]
	if !ok {
		if change.NewCategoryID == change.OriginalCategoryID && change.NewApproved == change.OriginalApproved {
			return PendingDeleted, nil
		}
		copied := *change
		copied.ID = m.nextChangeID
		copied.CreatedAt = time.Now()
		m.nextChangeID++
		m.pending[change.TransactionID] = &copied
		m.setStatus(change.TransactionID, StatusPendingPush)
		return PendingCreated, nil
	}

	if change.NewCategoryID == existing.OriginalCategoryID && change.NewApproved == existing.OriginalApproved {
		delete(m.pending, change.TransactionID)
		m.setStatus(change.TransactionID, StatusSynced)
		return PendingDeleted, nil
	}

	existing.NewCategoryID = change.NewCategoryID
	existing.NewCategoryName = change.NewCategoryName
	existing.NewApproved = change.NewApproved
	existing.CreatedAt = time.Now()
	return PendingUpdated, nil
}

// GetPendingChange retrieves a pending change
func (m *MockRepository) GetPendingChange(_ context.Context, transactionID string) (*PendingChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	change, ok := m.pending[transactionID]
	if !ok {
		return nil, fmt.Errorf("pending change %s: %w", transactionID, ErrNotFound)
	}
	return m.joined(change), nil
}

// ListPendingChanges returns all pending changes, newest transaction first
func (m *MockRepository) ListPendingChanges(_ context.Context) ([]*PendingChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*PendingChange
	for _, change := range m.pending {
		result = append(result, m.joined(change))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].TransactionID < result[j].TransactionID
	})
	return result, nil
}

// DeletePendingChange removes a pending change
func (m *MockRepository) DeletePendingChange(_ context.Context, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[transactionID]; !ok {
		return false, nil
	}
	delete(m.pending, transactionID)
	m.setStatus(transactionID, StatusSynced)
	return true, nil
}

// ApplyPendingChange copies a change into its transaction and removes it
func (m *MockRepository) ApplyPendingChange(_ context.Context, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ApplyCalls = append(m.ApplyCalls, transactionID)
	if m.ApplyPendingErr != nil {
		return false, m.ApplyPendingErr
	}

	change, ok := m.pending[transactionID]
	if !ok {
		return false, nil
	}
	if txn, ok := m.transactions[transactionID]; ok {
		txn.CategoryID = change.NewCategoryID
		txn.CategoryName = change.NewCategoryName
		txn.Approved = change.NewApproved
		txn.SyncStatus = StatusSynced
	}
	delete(m.pending, transactionID)
	return true, nil
}

// PendingChangeCount returns the number of pending changes
func (m *MockRepository) PendingChangeCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending), nil
}

// GetSyncState returns a stored watermark or nil
func (m *MockRepository) GetSyncState(_ context.Context, key string) (*SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SyncStateErr != nil {
		return nil, m.SyncStateErr
	}
	state, ok := m.syncStates[key]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

// UpdateSyncState stores a watermark
func (m *MockRepository) UpdateSyncState(_ context.Context, key string, lastSyncDate time.Time, recordCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SyncStateErr != nil {
		return m.SyncStateErr
	}
	m.syncStates[key] = &SyncState{
		Key:          key,
		LastSyncDate: lastSyncDate,
		LastSyncAt:   time.Now(),
		RecordCount:  recordCount,
	}
	return nil
}

// StartSyncRun creates a new sync run and returns its ID
func (m *MockRepository) StartSyncRun(_ context.Context, source string, dryRun bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartSyncRunErr != nil {
		return "", m.StartSyncRunErr
	}

	id := uuid.NewString()
	m.syncRuns[id] = &SyncRun{
		ID:        id,
		Source:    source,
		StartedAt: time.Now().UTC().Format(timestampLayout),
		DryRun:    dryRun,
		Status:    "running",
	}
	m.runOrder = append(m.runOrder, id)
	return id, nil
}

// CompleteSyncRun marks a sync run as complete
func (m *MockRepository) CompleteSyncRun(_ context.Context, runID string, counts RunCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastCompletedCounts = counts
	run, ok := m.syncRuns[runID]
	if !ok {
		return nil
	}
	run.CompletedAt = time.Now().UTC().Format(timestampLayout)
	run.Fetched = counts.Fetched
	run.Inserted = counts.Inserted
	run.Updated = counts.Updated
	run.Errored = counts.Errored
	run.Status = "completed"
	if counts.Errored > 0 {
		run.Status = "completed_with_errors"
	}
	return nil
}

// ListSyncRuns returns runs, newest first
func (m *MockRepository) ListSyncRuns(_ context.Context, limit int) ([]SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var runs []SyncRun
	for i := len(m.runOrder) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, *m.syncRuns[m.runOrder[i]])
	}
	return runs, nil
}

// GetSyncRun retrieves a run
func (m *MockRepository) GetSyncRun(_ context.Context, runID string) (*SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.syncRuns[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// Ping returns PingErr
func (m *MockRepository) Ping(_ context.Context) error {
	return m.PingErr
}

// GetStats returns mock statistics
func (m *MockRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{
		TransactionCount: len(m.transactions),
		PendingCount:     len(m.pending),
		OrderCount:       len(m.orders),
	}
	for _, txn := range m.transactions {
		if txn.CategoryID == "" {
			stats.UncategorizedCount++
		}
		if txn.SyncStatus == StatusConflict {
			stats.ConflictCount++
		}
		stats.EarliestTxnDate, stats.LatestTxnDate = widen(stats.EarliestTxnDate, stats.LatestTxnDate, txn.Date)
	}
	for _, order := range m.orders {
		stats.OrderItemCount += len(order.Items)
		stats.EarliestOrderDate, stats.LatestOrderDate = widen(stats.EarliestOrderDate, stats.LatestOrderDate, order.OrderDate)
	}
	return stats, nil
}

// widen extends an earliest/latest YYYY-MM-DD range to cover d
func widen(earliest, latest string, d time.Time) (string, string) {
	day := d.Format("2006-01-02")
	if earliest == "" || day < earliest {
		earliest = day
	}
	if latest == "" || day > latest {
		latest = day
	}
	return earliest, latest
}

// joined returns a copy of change carrying its transaction's details. Caller holds mu.
func (m *MockRepository) joined(change *PendingChange) *PendingChange {
	copied := *change
	if txn, ok := m.transactions[change.TransactionID]; ok {
		copied.Date = txn.Date
		copied.Amount = txn.Amount
		copied.PayeeName = txn.PayeeName
	}
	return &copied
}

// setStatus updates a transaction's sync status if present. Caller holds mu.
func (m *MockRepository) setStatus(id, status string) {
	if txn, ok := m.transactions[id]; ok {
		txn.SyncStatus = status
	}
}

func sortTransactions(txns []*Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.After(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
}
