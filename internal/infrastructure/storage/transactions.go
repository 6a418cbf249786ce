package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const transactionColumns = `id, COALESCE(budget_id, ''), date, amount, COALESCE(payee_name, ''), COALESCE(payee_id, ''),
	COALESCE(category_id, ''), COALESCE(category_name, ''), COALESCE(account_name, ''), COALESCE(account_id, ''),
	COALESCE(memo, ''), COALESCE(cleared, ''), approved, is_split, COALESCE(sync_status, 'synced'), synced_at`

// UpsertTransaction stores a pulled transaction
func (s *Storage) UpsertTransaction(ctx context.Context, txn *Transaction) (bool, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanTransaction(tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM ynab_transactions WHERE id = ?`, txn.ID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, false, fmt.Errorf("failed to look up transaction %s: %w", txn.ID, err)
	}

	if existing == nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ynab_transactions (id, budget_id, date, amount, payee_name, payee_id,
				category_id, category_name, account_name, account_id, memo, cleared, approved, is_split,
				sync_status, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'synced', ?)`,
			txn.ID, txn.BudgetID, formatDate(txn.Date), txn.Amount, txn.PayeeName, txn.PayeeID,
			txn.CategoryID, txn.CategoryName, txn.AccountName, txn.AccountID, txn.Memo, txn.Cleared,
			txn.Approved, txn.IsSplit, s.timestamp(),
		)
		if err != nil {
			return false, false, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		return true, true, tx.Commit()
	}

	var pendingCategoryID, pendingCategoryName sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT new_category_id, new_category_name FROM pending_changes WHERE transaction_id = ?`,
		txn.ID,
	).Scan(&pendingCategoryID, &pendingCategoryName)
	hasPending := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, false, fmt.Errorf("failed to look up pending change for %s: %w", txn.ID, err)
	}

	// YNAB sometimes clears categories on re-import; keep ours and flag it
	conflict := !hasPending && existing.CategoryID != "" && txn.CategoryID == ""

	categoryID, categoryName := txn.CategoryID, txn.CategoryName
	switch {
	case hasPending && pendingCategoryID.String != "":
		categoryID, categoryName = pendingCategoryID.String, pendingCategoryName.String
	case conflict:
		categoryID, categoryName = existing.CategoryID, existing.CategoryName
	}

	status := StatusSynced
	if conflict {
		status = StatusConflict
	} else if hasPending {
		status = StatusPendingPush
	}

	changed := formatDate(existing.Date) != formatDate(txn.Date) ||
		existing.Amount != txn.Amount ||
		existing.PayeeName != txn.PayeeName ||
		existing.CategoryID != categoryID ||
		existing.CategoryName != categoryName ||
		existing.Memo != txn.Memo ||
		existing.Approved != txn.Approved ||
		existing.SyncStatus != status
	if !changed {
		return false, false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE ynab_transactions SET date = ?, amount = ?, payee_name = ?, payee_id = ?,
			category_id = ?, category_name = ?, account_name = ?, account_id = ?, memo = ?, cleared = ?,
			approved = ?, is_split = ?, budget_id = COALESCE(NULLIF(?, ''), budget_id),
			sync_status = ?, synced_at = ?
		WHERE id = ?`,
		formatDate(txn.Date), txn.Amount, txn.PayeeName, txn.PayeeID,
		categoryID, categoryName, txn.AccountName, txn.AccountID, txn.Memo, txn.Cleared,
		txn.Approved, txn.IsSplit, txn.BudgetID, status, s.timestamp(), txn.ID,
	)
	if err != nil {
		return false, false, fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}

	if conflict {
		s.logger.Warn("keeping local category YNAB cleared",
			"transaction", txn.ID,
			"category", existing.CategoryName)
	}

	return false, true, tx.Commit()
}

// GetTransaction retrieves a transaction by ID
func (s *Storage) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM ynab_transactions WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	return txn, nil
}

// GetTransactions returns transactions matching the filter, newest first
func (s *Storage) GetTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error) {
	var conditions []string
	var args []interface{}

	if filter.PayeeContains != "" {
		conditions = append(conditions, "LOWER(payee_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.PayeeContains)+"%")
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatDate(filter.Since))
	}
	if filter.UncategorizedOnly {
		conditions = append(conditions, "(category_id IS NULL OR category_id = '')")
	}

	query := `SELECT ` + transactionColumns + ` FROM ynab_transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetTransactionCount returns the number of stored transactions
func (s *Storage) GetTransactionCount(ctx context.Context) (int, error) {
	return s.count(ctx, "ynab_transactions")
}

// GetConflicts returns transactions whose local category YNAB cleared
func (s *Storage) GetConflicts(ctx context.Context) ([]*Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM ynab_transactions WHERE sync_status = ? ORDER BY date DESC, id`,
		StatusConflict)
}

func (s *Storage) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []*Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var txn Transaction
	var date string
	var syncedAt sql.NullString

	err := row.Scan(
		&txn.ID, &txn.BudgetID, &date, &txn.Amount, &txn.PayeeName, &txn.PayeeID,
		&txn.CategoryID, &txn.CategoryName, &txn.AccountName, &txn.AccountID,
		&txn.Memo, &txn.Cleared, &txn.Approved, &txn.IsSplit, &txn.SyncStatus, &syncedAt,
	)
	if err != nil {
		return nil, err
	}

	if txn.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txn.ID, err)
	}
	txn.SyncedAt = parseTimestamp(syncedAt)
	return &txn, nil
}
