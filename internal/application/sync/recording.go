package sync

import (
	"context"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// Run tracking for pulls and pushes. A failure to record a run is logged and
// never fails the run itself.

// startRun records the start of a run and returns its ID, or "" if recording failed
func (s *Service) startRun(ctx context.Context, source string, dryRun bool) string {
	runID, err := s.repo.StartSyncRun(ctx, source, dryRun)
	if err != nil {
		s.logger.Error("Failed to record run start", "source", source, "error", err)
		return ""
	}
	return runID
}

// completeRun records a run's counts
func (s *Service) completeRun(ctx context.Context, runID string, counts storage.RunCounts) {
	if runID == "" {
		return
	}
	if err := s.repo.CompleteSyncRun(ctx, runID, counts); err != nil {
		s.logger.Error("Failed to record run completion", "run_id", runID, "error", err)
	}
}

// RecentRuns returns the latest pull and push runs, newest first
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]storage.SyncRun, error) {
	return s.repo.ListSyncRuns(ctx, limit)
}

// Run retrieves one recorded run
func (s *Service) Run(ctx context.Context, runID string) (*storage.SyncRun, error) {
	return s.repo.GetSyncRun(ctx, runID)
}
