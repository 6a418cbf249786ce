// Package providers defines the retailer order model shared by order sources.
package providers

import (
	"context"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// Order is a parsed retailer order
type Order struct {
	ID       string
	Date     time.Time
	Total    float64 // Amount charged
	Subtotal float64
	Tax      float64
	Shipping float64
	Items    []OrderItem
}

// OrderItem is one order line
type OrderItem struct {
	Name     string
	Price    float64 // Line total
	Quantity int
}

// FetchOptions configures how orders are fetched
type FetchOptions struct {
	StartDate time.Time
	EndDate   time.Time
	MaxOrders int // 0 = no limit
}

// OrderProvider is the interface that all order sources implement
type OrderProvider interface {
	Name() string
	FetchOrders(ctx context.Context, opts FetchOptions) ([]*Order, error)
	HealthCheck(ctx context.Context) error
}

// ItemNames returns the item names in order
func (o *Order) ItemNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return names
}

// CacheEntry converts the order into the matcher's representation
func (o *Order) CacheEntry() matcher.OrderCacheEntry {
	return matcher.OrderCacheEntry{
		OrderID:   o.ID,
		OrderDate: o.Date,
		Total:     o.Total,
		Items:     o.ItemNames(),
	}
}

// StorageOrder converts the order into a cache row with its items
func (o *Order) StorageOrder() *storage.Order {
	items := make([]storage.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, storage.OrderItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	return &storage.Order{
		OrderID:   o.ID,
		OrderDate: o.Date,
		Total:     o.Total,
		Items:     items,
	}
}
