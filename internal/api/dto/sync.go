package dto

// PushResponse is returned by POST /api/push.
type PushResponse struct {
	RunID     string                  `json:"run_id,omitempty"`
	DryRun    bool                    `json:"dry_run"`
	Pushed    int                     `json:"pushed"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	PushedIDs []string                `json:"pushed_ids,omitempty"`
	Errors    []string                `json:"errors,omitempty"`
	Pending   []PendingChangeResponse `json:"pending,omitempty"`
}

// StartPullResponse is returned when a pull job is started.
type StartPullResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// PullResultResponse is one source's pull outcome.
type PullResultResponse struct {
	Source     string   `json:"source"`
	RunID      string   `json:"run_id,omitempty"`
	Fetched    int      `json:"fetched"`
	Inserted   int      `json:"inserted"`
	Updated    int      `json:"updated"`
	Total      int      `json:"total"`
	OldestDate string   `json:"oldest_date,omitempty"`
	NewestDate string   `json:"newest_date,omitempty"`
	Conflicts  int      `json:"conflicts"`
	Fixed      int      `json:"fixed"`
	Errors     []string `json:"errors,omitempty"`
}

// PullJobResponse represents a pull job's status.
type PullJobResponse struct {
	JobID       string               `json:"job_id"`
	Trigger     string               `json:"trigger"`
	Status      string               `json:"status"`
	Full        bool                 `json:"full"`
	DryRun      bool                 `json:"dry_run"`
	StartedAt   string               `json:"started_at"`
	CompletedAt *string              `json:"completed_at,omitempty"`
	Results     []PullResultResponse `json:"results,omitempty"`
	Error       *string              `json:"error,omitempty"`
}

// PullJobListResponse lists pull jobs.
type PullJobListResponse struct {
	Jobs  []PullJobResponse `json:"jobs"`
	Count int               `json:"count"`
}

// MessageResponse is a generic message response.
type MessageResponse struct {
	Message string `json:"message"`
}
