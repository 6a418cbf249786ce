package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upTrimDateColumns, downTrimDateColumns)
}

// upTrimDateColumns rewrites dates stored with a time component ("2024-03-01T00:00:00Z")
// to plain YYYY-MM-DD. Date-range queries compare these columns as strings.
func upTrimDateColumns(ctx context.Context, tx *sql.Tx) error {
	queries := []string{
		`UPDATE amazon_orders_cache SET order_date = substr(order_date, 1, 10) WHERE length(order_date) > 10`,
		`UPDATE ynab_transactions SET date = substr(date, 1, 10) WHERE length(date) > 10`,
		`UPDATE sync_state SET last_sync_date = substr(last_sync_date, 1, 10) WHERE length(last_sync_date) > 10`,
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// downTrimDateColumns is a no-op; the time component carried no information.
func downTrimDateColumns(ctx context.Context, tx *sql.Tx) error {
	return nil
}
