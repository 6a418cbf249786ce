package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Transaction sync statuses
const (
	StatusSynced      = "synced"
	StatusConflict    = "conflict"
	StatusPendingPush = "pending_push"
)

// Order is a cached Amazon order header plus its items
type Order struct {
	OrderID   string      `json:"order_id"`
	OrderDate time.Time   `json:"order_date"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Transaction is the local copy of a YNAB transaction.
// Amount is signed and in currency units; outflows are negative.
type Transaction struct {
	ID           string    `json:"id"`
	BudgetID     string    `json:"budget_id,omitempty"`
	Date         time.Time `json:"date"`
	Amount       float64   `json:"amount"`
	PayeeName    string    `json:"payee_name"`
	PayeeID      string    `json:"payee_id,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	AccountName  string    `json:"account_name,omitempty"`
	AccountID    string    `json:"account_id,omitempty"`
	Memo         string    `json:"memo,omitempty"`
	Cleared      string    `json:"cleared,omitempty"`
	Approved     bool      `json:"approved"`
	IsSplit      bool      `json:"is_split"`
	SyncStatus   string    `json:"sync_status"`
	SyncedAt     time.Time `json:"synced_at"`
}

// PendingChange is a local category edit waiting to be pushed to YNAB
type PendingChange struct {
	ID                   int64     `json:"id"`
	TransactionID        string    `json:"transaction_id"`
	NewCategoryID        string    `json:"new_category_id"`
	NewCategoryName      string    `json:"new_category_name"`
	OriginalCategoryID   string    `json:"original_category_id"`
	OriginalCategoryName string    `json:"original_category_name"`
	NewApproved          bool      `json:"new_approved"`
	OriginalApproved     bool      `json:"original_approved"`
	CreatedAt            time.Time `json:"created_at"`

	// Joined from ynab_transactions by ListPendingChanges
	Date      time.Time `json:"date"`
	Amount    float64   `json:"amount"`
	PayeeName string    `json:"payee_name"`
}

// PendingOutcome reports what SetPendingChange did
type PendingOutcome string

const (
	PendingCreated PendingOutcome = "created"
	PendingUpdated PendingOutcome = "updated"
	PendingDeleted PendingOutcome = "deleted"
)

// SyncState is the watermark for one pull source
type SyncState struct {
	Key          string    `json:"key"`
	LastSyncDate time.Time `json:"last_sync_date"`
	LastSyncAt   time.Time `json:"last_sync_at"`
	RecordCount  int       `json:"record_count"`
}

// SyncRun represents a sync run record
type SyncRun struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	DryRun      bool   `json:"dry_run"`
	Fetched     int    `json:"fetched"`
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	Errored     int    `json:"errored"`
	Status      string `json:"status"`
}

// RunCounts are the totals recorded when a run completes
type RunCounts struct {
	Fetched  int
	Inserted int
	Updated  int
	Errored  int
}

// Stats summarizes what the local store holds
type Stats struct {
	TransactionCount   int    `json:"transaction_count"`
	UncategorizedCount int    `json:"uncategorized_count"`
	ConflictCount      int    `json:"conflict_count"`
	PendingCount       int    `json:"pending_count"`
	OrderCount         int    `json:"order_count"`
	OrderItemCount     int    `json:"order_item_count"`
	EarliestTxnDate    string `json:"earliest_txn_date,omitempty"`
	LatestTxnDate      string `json:"latest_txn_date,omitempty"`
	EarliestOrderDate  string `json:"earliest_order_date,omitempty"`
	LatestOrderDate    string `json:"latest_order_date,omitempty"`
}
