package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// ErrEmptyCategory is returned when a categorize request has no category ID
var ErrEmptyCategory = errors.New("category ID is required")

// CategorizeRequest is a local category edit
type CategorizeRequest struct {
	TransactionID string `json:"transaction_id"`
	CategoryID    string `json:"category_id"`
	CategoryName  string `json:"category_name"`
	Approve       bool   `json:"approve"`
}

// Categorize records a pending category change for a stored transaction.
// Nothing is sent to YNAB until Push. Setting a transaction back to its
// original category and approval removes the pending change.
func (s *Service) Categorize(ctx context.Context, req CategorizeRequest) (storage.PendingOutcome, error) {
	if req.CategoryID == "" {
		return "", ErrEmptyCategory
	}

	txn, err := s.repo.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return "", fmt.Errorf("failed to load transaction: %w", err)
	}

	outcome, err := s.repo.SetPendingChange(ctx, &storage.PendingChange{
		TransactionID:        txn.ID,
		NewCategoryID:        req.CategoryID,
		NewCategoryName:      req.CategoryName,
		NewApproved:          req.Approve || txn.Approved,
		OriginalCategoryID:   txn.CategoryID,
		OriginalCategoryName: txn.CategoryName,
		OriginalApproved:     txn.Approved,
	})
	if err != nil {
		return "", fmt.Errorf("failed to record change: %w", err)
	}

	s.logger.Info("Recorded category change",
		"transaction", txn.ID,
		"payee", txn.PayeeName,
		"category", req.CategoryName,
		"outcome", outcome)
	return outcome, nil
}

// Undo discards the pending change for a transaction.
// Returns storage.ErrNotFound if there was nothing to undo.
func (s *Service) Undo(ctx context.Context, transactionID string) error {
	deleted, err := s.repo.DeletePendingChange(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to undo change: %w", err)
	}
	if !deleted {
		return fmt.Errorf("pending change %s: %w", transactionID, storage.ErrNotFound)
	}

	s.logger.Info("Discarded pending change", "transaction", transactionID)
	return nil
}

// ListPending returns the changes the next push would send
func (s *Service) ListPending(ctx context.Context) ([]*storage.PendingChange, error) {
	return s.repo.ListPendingChanges(ctx)
}
