package storage

import (
	"context"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	OrderRepository
	TransactionRepository
	PendingChangeRepository
	SyncStateRepository
	SyncRunRepository
	GetStats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// OrderRepository handles the Amazon order cache
type OrderRepository interface {
	// CacheOrder inserts or updates an order header.
	// inserted is true for new orders, changed is true when date or total moved.
	CacheOrder(ctx context.Context, order *Order) (inserted, changed bool, err error)

	// UpsertOrderItems replaces the items stored for an order
	UpsertOrderItems(ctx context.Context, orderID string, items []OrderItem) error

	// GetCachedOrder retrieves one order header and its items
	GetCachedOrder(ctx context.Context, orderID string) (*Order, error)

	// GetCachedOrdersByDateRange returns orders dated within [start, end], newest first
	GetCachedOrdersByDateRange(ctx context.Context, start, end time.Time) ([]matcher.OrderCacheEntry, error)

	// GetOrderCount returns the number of cached orders
	GetOrderCount(ctx context.Context) (int, error)
}

// TransactionRepository handles the local copy of budget transactions
type TransactionRepository interface {
	// UpsertTransaction stores a pulled transaction. A pending local category
	// is never overwritten, and a local category YNAB cleared is kept and the
	// row marked as a conflict.
	UpsertTransaction(ctx context.Context, txn *Transaction) (inserted, changed bool, err error)

	// GetTransaction retrieves a transaction by ID
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	// GetTransactions returns transactions matching the filter, newest first
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)

	// GetTransactionCount returns the number of stored transactions
	GetTransactionCount(ctx context.Context) (int, error)

	// GetConflicts returns transactions whose local category YNAB cleared
	GetConflicts(ctx context.Context) ([]*Transaction, error)
}

// TransactionFilter narrows GetTransactions
type TransactionFilter struct {
	PayeeContains     string    // Case-insensitive payee substring (empty = all)
	Since             time.Time // Zero = all time
	UncategorizedOnly bool
	Limit             int // 0 = no limit
}

// PendingChangeRepository handles local edits waiting to be pushed
type PendingChangeRepository interface {
	// SetPendingChange records a category change. A later call for the same
	// transaction replaces the new values but keeps the first original values.
	// If the change reverts the transaction to its original state the pending
	// change is removed and SetPendingChange returns PendingDeleted.
	SetPendingChange(ctx context.Context, change *PendingChange) (PendingOutcome, error)

	// GetPendingChange retrieves the pending change for a transaction
	GetPendingChange(ctx context.Context, transactionID string) (*PendingChange, error)

	// ListPendingChanges returns all pending changes joined with their transactions
	ListPendingChanges(ctx context.Context) ([]*PendingChange, error)

	// DeletePendingChange discards a pending change (undo)
	DeletePendingChange(ctx context.Context, transactionID string) (bool, error)

	// ApplyPendingChange copies a pushed change into the transaction and removes it
	ApplyPendingChange(ctx context.Context, transactionID string) (bool, error)

	// PendingChangeCount returns the number of pending changes
	PendingChangeCount(ctx context.Context) (int, error)
}

// SyncStateRepository tracks incremental pull watermarks
type SyncStateRepository interface {
	GetSyncState(ctx context.Context, key string) (*SyncState, error)
	UpdateSyncState(ctx context.Context, key string, lastSyncDate time.Time, recordCount int) error
}

// SyncRunRepository handles pull/push run tracking
type SyncRunRepository interface {
	// StartSyncRun records the start of a run and returns its ID
	StartSyncRun(ctx context.Context, source string, dryRun bool) (string, error)

	// CompleteSyncRun records the outcome of a run
	CompleteSyncRun(ctx context.Context, runID string, counts RunCounts) error

	// ListSyncRuns returns recent runs, newest first
	ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error)

	// GetSyncRun retrieves a run by ID
	GetSyncRun(ctx context.Context, runID string) (*SyncRun, error)
}
