package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetSyncState returns the watermark for key, or nil if the source was never pulled
func (s *Storage) GetSyncState(ctx context.Context, key string) (*SyncState, error) {
	state := &SyncState{Key: key}
	var lastSyncDate, lastSyncAt sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync_date, last_sync_at, COALESCE(record_count, 0) FROM sync_state WHERE key = ?`,
		key,
	).Scan(&lastSyncDate, &lastSyncAt, &state.RecordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state %s: %w", key, err)
	}

	if lastSyncDate.Valid && lastSyncDate.String != "" {
		if state.LastSyncDate, err = parseDate(lastSyncDate.String); err != nil {
			return nil, fmt.Errorf("sync state %s: %w", key, err)
		}
	}
	state.LastSyncAt = parseTimestamp(lastSyncAt)
	return state, nil
}

// UpdateSyncState records a completed pull for key
func (s *Storage) UpdateSyncState(ctx context.Context, key string, lastSyncDate time.Time, recordCount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, last_sync_date, last_sync_at, record_count) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			last_sync_date = excluded.last_sync_date,
			last_sync_at = excluded.last_sync_at,
			record_count = excluded.record_count`,
		key, formatDate(lastSyncDate), s.timestamp(), recordCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync state %s: %w", key, err)
	}
	return nil
}

// StartSyncRun records the start of a sync run
func (s *Storage) StartSyncRun(ctx context.Context, source string, dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, source, started_at, dry_run, status) VALUES (?, ?, ?, ?, 'running')`,
		id, source, s.timestamp(), dryRun,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start %s run: %w", source, err)
	}
	return id, nil
}

// CompleteSyncRun records the completion of a sync run
func (s *Storage) CompleteSyncRun(ctx context.Context, runID string, counts RunCounts) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET completed_at = ?,
		    fetched = ?,
		    inserted = ?,
		    updated = ?,
		    errored = ?,
		    status = CASE WHEN ? > 0 THEN 'completed_with_errors' ELSE 'completed' END
		WHERE id = ?`,
		s.timestamp(), counts.Fetched, counts.Inserted, counts.Updated, counts.Errored, counts.Errored, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", runID, err)
	}
	return nil
}

// ListSyncRuns returns recent sync runs, newest first
func (s *Storage) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, started_at, COALESCE(completed_at, ''), dry_run,
		       fetched, inserted, updated, errored, status
		FROM sync_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetSyncRun retrieves a sync run by ID
func (s *Storage) GetSyncRun(ctx context.Context, runID string) (*SyncRun, error) {
	run, err := scanSyncRun(s.db.QueryRowContext(ctx, `
		SELECT id, source, started_at, COALESCE(completed_at, ''), dry_run,
		       fetched, inserted, updated, errored, status
		FROM sync_runs WHERE id = ?`, runID))
	if err != nil {
		return nil, notFound(err, "run", runID)
	}
	return run, nil
}

func scanSyncRun(row rowScanner) (*SyncRun, error) {
	var run SyncRun
	err := row.Scan(
		&run.ID, &run.Source, &run.StartedAt, &run.CompletedAt, &run.DryRun,
		&run.Fetched, &run.Inserted, &run.Updated, &run.Errored, &run.Status,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
