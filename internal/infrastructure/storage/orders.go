package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
)

// itemSeparator joins item names in GROUP_CONCAT
const itemSeparator = "||"

// CacheOrder inserts or updates an order header
func (s *Storage) CacheOrder(ctx context.Context, order *Order) (bool, bool, error) {
	newDate := formatDate(order.OrderDate)

	var existingDate string
	var existingTotal float64
	err := s.db.QueryRowContext(ctx,
		`SELECT order_date, total FROM amazon_orders_cache WHERE order_id = ?`,
		order.OrderID,
	).Scan(&existingDate, &existingTotal)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO amazon_orders_cache (order_id, order_date, total, fetched_at) VALUES (?, ?, ?, ?)`,
			order.OrderID, newDate, order.Total, s.timestamp(),
		)
		if err != nil {
			return false, false, fmt.Errorf("failed to insert order %s: %w", order.OrderID, err)
		}
		return true, true, nil

	case err != nil:
		return false, false, fmt.Errorf("failed to look up order %s: %w", order.OrderID, err)
	}

	if existingDate == newDate && existingTotal == order.Total {
		return false, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE amazon_orders_cache SET order_date = ?, total = ?, fetched_at = ? WHERE order_id = ?`,
		newDate, order.Total, s.timestamp(), order.OrderID,
	)
	if err != nil {
		return false, false, fmt.Errorf("failed to update order %s: %w", order.OrderID, err)
	}
	return false, true, nil
}

// UpsertOrderItems replaces the items stored for an order
func (s *Storage) UpsertOrderItems(ctx context.Context, orderID string, items []OrderItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM amazon_order_items WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("failed to clear items for %s: %w", orderID, err)
	}

	for _, item := range items {
		name := item.Name
		if name == "" {
			name = "Unknown"
		}
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO amazon_order_items (order_id, item_name, item_price, quantity) VALUES (?, ?, ?, ?)`,
			orderID, name, item.Price, quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item for %s: %w", orderID, err)
		}
	}

	return tx.Commit()
}

// GetCachedOrder retrieves one order header and its items
func (s *Storage) GetCachedOrder(ctx context.Context, orderID string) (*Order, error) {
	order := &Order{OrderID: orderID}
	var orderDate string
	var fetchedAt sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT order_date, total, fetched_at FROM amazon_orders_cache WHERE order_id = ?`,
		orderID,
	).Scan(&orderDate, &order.Total, &fetchedAt)
	if err != nil {
		return nil, notFound(err, "order", orderID)
	}

	if order.OrderDate, err = parseDate(orderDate); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}
	order.FetchedAt = parseTimestamp(fetchedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_name, COALESCE(item_price, 0), COALESCE(quantity, 1)
		 FROM amazon_order_items WHERE order_id = ? ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for %s: %w", orderID, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	return order, rows.Err()
}

// GetCachedOrdersByDateRange returns orders dated within [start, end], newest first
func (s *Storage) GetCachedOrdersByDateRange(ctx context.Context, start, end time.Time) ([]matcher.OrderCacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.order_id, c.order_date, c.total, COALESCE(GROUP_CONCAT(i.item_name, ?), '')
		FROM amazon_orders_cache c
		LEFT JOIN amazon_order_items i ON c.order_id = i.order_id
		WHERE c.order_date BETWEEN ? AND ?
		GROUP BY c.order_id
		ORDER BY c.order_date DESC, c.order_id
	`, itemSeparator, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []matcher.OrderCacheEntry
	for rows.Next() {
		var entry matcher.OrderCacheEntry
		var orderDate, items string
		if err := rows.Scan(&entry.OrderID, &orderDate, &entry.Total, &items); err != nil {
			return nil, err
		}
		if entry.OrderDate, err = parseDate(orderDate); err != nil {
			return nil, fmt.Errorf("order %s: %w", entry.OrderID, err)
		}
		if items != "" {
			entry.Items = strings.Split(items, itemSeparator)
		}
		orders = append(orders, entry)
	}

	return orders, rows.Err()
}

// GetOrderCount returns the number of cached orders
func (s *Storage) GetOrderCount(ctx context.Context) (int, error) {
	return s.count(ctx, "amazon_orders_cache")
}
