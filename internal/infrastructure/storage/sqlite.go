package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

// Storage provides SQLite database access for the local store.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database at dbPath and migrates it.
// A nil logger discards migration output.
func NewStorage(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; serialize through one connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	s := &Storage{db: db, logger: logger, now: time.Now}

	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Ping checks the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// GetStats summarizes the store's contents
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN category_id IS NULL OR category_id = '' THEN 1 END),
			COUNT(CASE WHEN sync_status = 'conflict' THEN 1 END),
			COALESCE(MIN(date), ''),
			COALESCE(MAX(date), '')
		FROM ynab_transactions
	`).Scan(
		&stats.TransactionCount,
		&stats.UncategorizedCount,
		&stats.ConflictCount,
		&stats.EarliestTxnDate,
		&stats.LatestTxnDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MIN(order_date), ''), COALESCE(MAX(order_date), '')
		FROM amazon_orders_cache
	`).Scan(&stats.OrderCount, &stats.EarliestOrderDate, &stats.LatestOrderDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read order stats: %w", err)
	}

	if stats.OrderItemCount, err = s.count(ctx, "amazon_order_items"); err != nil {
		return nil, err
	}
	if stats.PendingCount, err = s.count(ctx, "pending_changes"); err != nil {
		return nil, err
	}

	return stats, nil
}

// count returns the row count of a table. table is never user input.
func (s *Storage) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (s *Storage) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// parseDate accepts a bare date or anything with a date prefix
func parseDate(v string) (time.Time, error) {
	if len(v) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return time.Parse(dateLayout, v[:len(dateLayout)])
}

func parseTimestamp(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// notFound converts sql.ErrNoRows into ErrNotFound
func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}
