package dto

// CategorizeRequest is the body of POST /api/pending.
type CategorizeRequest struct {
	TransactionID string `json:"transaction_id"`
	CategoryID    string `json:"category_id"`
	CategoryName  string `json:"category_name"`
	Approve       bool   `json:"approve"`
}

// PushRequest is the body of POST /api/push.
type PushRequest struct {
	DryRun bool `json:"dry_run"`
}

// PullRequest is the body of POST /api/pull.
type PullRequest struct {
	Full      bool `json:"full"`
	SinceDays int  `json:"since_days"`
	DryRun    bool `json:"dry_run"`
	Fix       bool `json:"fix"`
}

// MatchParams are the query parameters of GET /api/match.
type MatchParams struct {
	SinceDays         int  `json:"since_days"`
	UncategorizedOnly bool `json:"uncategorized"`
}

// SyncRunListParams represents query parameters for listing sync runs.
type SyncRunListParams struct {
	Limit int `json:"limit"`
}

// DefaultSyncRunListParams returns default values for sync run list params.
func DefaultSyncRunListParams() SyncRunListParams {
	return SyncRunListParams{
		Limit: 20,
	}
}
