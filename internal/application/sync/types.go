package sync

import (
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// Pull sources, also used as sync_state keys and run sources
const (
	SourceYNAB   = "ynab"
	SourceAmazon = "amazon"
	SourcePush   = "push"
)

// PullOptions holds pull configuration
type PullOptions struct {
	Full      bool // Ignore sync state and fetch all available history
	SinceDays int  // If > 0, fetch the last N days regardless of sync state
	DryRun    bool // Fetch and compare without writing
	Fix       bool // Queue conflicted transactions so the next push restores their category
}

// PullResult holds the outcome of pulling one source
type PullResult struct {
	Source     string    `json:"source"`
	RunID      string    `json:"run_id,omitempty"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Total      int       `json:"total"` // Rows in the store after the pull
	OldestDate time.Time `json:"oldest_date,omitempty"`
	NewestDate time.Time `json:"newest_date,omitempty"`
	Conflicts  int       `json:"conflicts"`
	Fixed      int       `json:"fixed"`
	Errors     []string  `json:"errors,omitempty"`
}

// Success reports whether the pull finished without errors
func (r *PullResult) Success() bool {
	return len(r.Errors) == 0
}

// MatchOptions narrows which stored transactions are matched
type MatchOptions struct {
	Since             time.Time // Zero = all stored transactions
	UncategorizedOnly bool      // Match only uncategorized, but let categorized ones claim orders
}

// MatchReport is a match run plus the inputs it saw
type MatchReport struct {
	Result       matcher.MatchResult
	Transactions int
	Orders       int
	Start        time.Time
	End          time.Time
	Duration     time.Duration
}

// PushResult holds the outcome of pushing pending changes
type PushResult struct {
	RunID     string   `json:"run_id,omitempty"`
	DryRun    bool     `json:"dry_run"`
	Pushed    int      `json:"pushed"` // Changes attempted (or that would be, for a dry run)
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	PushedIDs []string `json:"pushed_ids,omitempty"`
	Errors    []string `json:"errors,omitempty"`

	// Pending is the change list a dry run would push
	Pending []*storage.PendingChange `json:"pending,omitempty"`
}

// Success reports whether every change was pushed and verified
func (r *PushResult) Success() bool {
	return r.Failed == 0 && len(r.Errors) == 0
}

// SourceStatus summarizes one pull source
type SourceStatus struct {
	Count        int       `json:"count"`
	EarliestDate string    `json:"earliest_date,omitempty"`
	LatestDate   string    `json:"latest_date,omitempty"`
	LastSyncDate time.Time `json:"last_sync_date,omitempty"`
	LastSyncAt   time.Time `json:"last_sync_at,omitempty"`
}

// Status is the store's current state
type Status struct {
	YNAB          SourceStatus `json:"ynab"`
	Amazon        SourceStatus `json:"amazon"`
	Uncategorized int          `json:"uncategorized"`
	Conflicts     int          `json:"conflicts"`
	PendingPush   int          `json:"pending_push"`
	OrderItems    int          `json:"order_items"`
}
