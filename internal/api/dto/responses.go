package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	Timestamp string `json:"timestamp"`
}

// PendingChangeResponse is a local category edit waiting to be pushed.
type PendingChangeResponse struct {
	TransactionID        string  `json:"transaction_id"`
	Date                 string  `json:"date"`
	Amount               float64 `json:"amount"`
	PayeeName            string  `json:"payee_name"`
	NewCategoryID        string  `json:"new_category_id"`
	NewCategoryName      string  `json:"new_category_name"`
	OriginalCategoryID   string  `json:"original_category_id,omitempty"`
	OriginalCategoryName string  `json:"original_category_name,omitempty"`
	NewApproved          bool    `json:"new_approved"`
	CreatedAt            string  `json:"created_at,omitempty"`
}

// PendingListResponse is returned by GET /api/pending.
type PendingListResponse struct {
	Changes []PendingChangeResponse `json:"changes"`
	Count   int                     `json:"count"`
}

// CategorizeResponse is returned by POST /api/pending.
type CategorizeResponse struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"` // created, updated or deleted
}

// SyncRunResponse represents a pull or push run in API responses.
type SyncRunResponse struct {
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

// SyncRunListResponse is returned when listing sync runs.
type SyncRunListResponse struct {
	Runs  []SyncRunResponse `json:"runs"`
	Count int               `json:"count"`
}

// SourceStatusResponse summarizes one pull source.
type SourceStatusResponse struct {
	Count        int    `json:"count"`
	EarliestDate string `json:"earliest_date,omitempty"`
	LatestDate   string `json:"latest_date,omitempty"`
	LastSyncDate string `json:"last_sync_date,omitempty"`
	LastSyncAt   string `json:"last_sync_at,omitempty"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	YNAB          SourceStatusResponse `json:"ynab"`
	Amazon        SourceStatusResponse `json:"amazon"`
	Uncategorized int                  `json:"uncategorized"`
	Conflicts     int                  `json:"conflicts"`
	PendingPush   int                  `json:"pending_push"`
	OrderItems    int                  `json:"order_items"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
