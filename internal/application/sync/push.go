package sync

import (
	"context"
	"fmt"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// Push statuses, used as the metrics label
const (
	pushSucceeded  = "succeeded"
	pushFailed     = "failed"
	pushUnverified = "unverified"
)

// Push sends every pending change to YNAB. A change is applied locally only
// once YNAB echoes back the new category and approval; anything else stays
// pending for the next push. A dry run returns the pending list untouched.
func (s *Service) Push(ctx context.Context, dryRun bool) (*PushResult, error) {
	pending, err := s.repo.ListPendingChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending changes: %w", err)
	}

	result := &PushResult{DryRun: dryRun, Pushed: len(pending)}
	if dryRun {
		result.Pending = pending
		return result, nil
	}
	if len(pending) == 0 {
		s.logger.Info("Nothing to push")
		return result, nil
	}

	result.RunID = s.startRun(ctx, SourcePush, false)
	defer func() {
		s.completeRun(ctx, result.RunID, storage.RunCounts{
			Fetched: result.Pushed,
			Updated: result.Succeeded,
			Errored: result.Failed,
		})
	}()

	for _, change := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.pushChange(ctx, change); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", change.TransactionID, err))
			s.logger.Error("Push failed", "transaction", change.TransactionID, "error", err)
			continue
		}

		result.Succeeded++
		result.PushedIDs = append(result.PushedIDs, change.TransactionID)
		s.metrics.IncrPush(pushSucceeded)
	}

	s.logger.Info("Push complete",
		"run_id", result.RunID,
		"pushed", result.Pushed,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}

func (s *Service) pushChange(ctx context.Context, change *storage.PendingChange) error {
	updated, err := s.budget.UpdateTransactionCategory(ctx, change.TransactionID, change.NewCategoryID, change.NewApproved)
	if err != nil {
		s.metrics.IncrPush(pushFailed)
		return err
	}

	if updated.CategoryID != change.NewCategoryID || updated.Approved != change.NewApproved {
		s.metrics.IncrPush(pushUnverified)
		return fmt.Errorf("YNAB returned category %q approved=%t, expected %q approved=%t",
			updated.CategoryID, updated.Approved, change.NewCategoryID, change.NewApproved)
	}

	applied, err := s.repo.ApplyPendingChange(ctx, change.TransactionID)
	if err != nil {
		s.metrics.IncrPush(pushFailed)
		return fmt.Errorf("pushed but failed to apply locally: %w", err)
	}
	if !applied {
		// Undone while the push was in flight; YNAB already has the new value
		s.logger.Warn("Pending change vanished during push", "transaction", change.TransactionID)
	}
	return nil
}
