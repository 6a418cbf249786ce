package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SetPendingChange records a local category change for later push
func (s *Storage) SetPendingChange(ctx context.Context, change *PendingChange) (PendingOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var origID, origName sql.NullString
	var origApproved bool
	err = tx.QueryRowContext(ctx, `
		SELECT original_category_id, original_category_name, original_approved
		FROM pending_changes WHERE transaction_id = ?`,
		change.TransactionID,
	).Scan(&origID, &origName, &origApproved)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if change.NewCategoryID == change.OriginalCategoryID && change.NewApproved == change.OriginalApproved {
			return PendingDeleted, tx.Commit()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pending_changes (transaction_id, new_category_id, new_category_name,
				original_category_id, original_category_name, new_approved, original_approved, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			change.TransactionID, change.NewCategoryID, change.NewCategoryName,
			change.OriginalCategoryID, change.OriginalCategoryName,
			change.NewApproved, change.OriginalApproved, s.timestamp(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to create pending change for %s: %w", change.TransactionID, err)
		}
		if err := markStatus(ctx, tx, change.TransactionID, StatusPendingPush); err != nil {
			return "", err
		}
		return PendingCreated, tx.Commit()

	case err != nil:
		return "", fmt.Errorf("failed to look up pending change for %s: %w", change.TransactionID, err)
	}

	// The first recorded original wins so undo always restores what YNAB had
	if change.NewCategoryID == origID.String && change.NewApproved == origApproved {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_changes WHERE transaction_id = ?`, change.TransactionID); err != nil {
			return "", fmt.Errorf("failed to remove reverted change for %s: %w", change.TransactionID, err)
		}
		if err := markStatus(ctx, tx, change.TransactionID, StatusSynced); err != nil {
			return "", err
		}
		return PendingDeleted, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pending_changes SET new_category_id = ?, new_category_name = ?, new_approved = ?, created_at = ?
		WHERE transaction_id = ?`,
		change.NewCategoryID, change.NewCategoryName, change.NewApproved, s.timestamp(), change.TransactionID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update pending change for %s: %w", change.TransactionID, err)
	}
	return PendingUpdated, tx.Commit()
}

// GetPendingChange retrieves the pending change for a transaction
func (s *Storage) GetPendingChange(ctx context.Context, transactionID string) (*PendingChange, error) {
	change, err := scanPendingChange(s.db.QueryRowContext(ctx, `
		SELECT pc.id, pc.transaction_id, COALESCE(pc.new_category_id, ''), COALESCE(pc.new_category_name, ''),
			COALESCE(pc.original_category_id, ''), COALESCE(pc.original_category_name, ''),
			pc.new_approved, pc.original_approved, pc.created_at,
			COALESCE(t.date, ''), COALESCE(t.amount, 0), COALESCE(t.payee_name, '')
		FROM pending_changes pc LEFT JOIN ynab_transactions t ON pc.transaction_id = t.id
		WHERE pc.transaction_id = ?`, transactionID))
	if err != nil {
		return nil, notFound(err, "pending change", transactionID)
	}
	return change, nil
}

// ListPendingChanges returns all pending changes joined with their transactions, newest first
func (s *Storage) ListPendingChanges(ctx context.Context) ([]*PendingChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pc.id, pc.transaction_id, COALESCE(pc.new_category_id, ''), COALESCE(pc.new_category_name, ''),
			COALESCE(pc.original_category_id, ''), COALESCE(pc.original_category_name, ''),
			pc.new_approved, pc.original_approved, pc.created_at,
			t.date, t.amount, COALESCE(t.payee_name, '')
		FROM pending_changes pc JOIN ynab_transactions t ON pc.transaction_id = t.id
		ORDER BY t.date DESC, pc.transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var changes []*PendingChange
	for rows.Next() {
		change, err := scanPendingChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

// DeletePendingChange discards a pending change (undo)
func (s *Storage) DeletePendingChange(ctx context.Context, transactionID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM pending_changes WHERE transaction_id = ?`, transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending change for %s: %w", transactionID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		if err := markStatus(ctx, tx, transactionID, StatusSynced); err != nil {
			return false, err
		}
	}
	return n > 0, tx.Commit()
}

// ApplyPendingChange copies a pushed change into the transaction and removes it
func (s *Storage) ApplyPendingChange(ctx context.Context, transactionID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var categoryID, categoryName sql.NullString
	var approved bool
	err = tx.QueryRowContext(ctx,
		`SELECT new_category_id, new_category_name, new_approved FROM pending_changes WHERE transaction_id = ?`,
		transactionID,
	).Scan(&categoryID, &categoryName, &approved)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read pending change for %s: %w", transactionID, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ynab_transactions
		SET category_id = ?, category_name = ?, approved = ?, sync_status = ?, synced_at = ?
		WHERE id = ?`,
		categoryID.String, categoryName.String, approved, StatusSynced, s.timestamp(), transactionID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to apply change to %s: %w", transactionID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_changes WHERE transaction_id = ?`, transactionID); err != nil {
		return false, fmt.Errorf("failed to clear pending change for %s: %w", transactionID, err)
	}

	return true, tx.Commit()
}

// PendingChangeCount returns the number of pending changes
func (s *Storage) PendingChangeCount(ctx context.Context) (int, error) {
	return s.count(ctx, "pending_changes")
}

func markStatus(ctx context.Context, tx *sql.Tx, transactionID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE ynab_transactions SET sync_status = ? WHERE id = ?`, status, transactionID)
	if err != nil {
		return fmt.Errorf("failed to mark %s as %s: %w", transactionID, status, err)
	}
	return nil
}

func scanPendingChange(row rowScanner) (*PendingChange, error) {
	var change PendingChange
	var createdAt sql.NullString
	var date string

	err := row.Scan(
		&change.ID, &change.TransactionID, &change.NewCategoryID, &change.NewCategoryName,
		&change.OriginalCategoryID, &change.OriginalCategoryName,
		&change.NewApproved, &change.OriginalApproved, &createdAt,
		&date, &change.Amount, &change.PayeeName,
	)
	if err != nil {
		return nil, err
	}

	change.CreatedAt = parseTimestamp(createdAt)
	if date != "" {
		if change.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("pending change %s: %w", change.TransactionID, err)
		}
	}
	return &change, nil
}
