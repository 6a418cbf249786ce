package amazon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers"
)

// ErrMissingOrderID is returned for scraper rows without an order number
var ErrMissingOrderID = errors.New("order has no ID")

// ParseOutput decodes the JSON the scraper writes to stdout
func ParseOutput(r io.Reader) (*ScraperOutput, error) {
	var output ScraperOutput
	if err := json.NewDecoder(r).Decode(&output); err != nil {
		return nil, fmt.Errorf("failed to decode scraper output: %w", err)
	}
	return &output, nil
}

// ParseOutputBytes decodes scraper output held in memory
func ParseOutputBytes(data []byte) (*ScraperOutput, error) {
	var output ScraperOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("failed to decode scraper output: %w", err)
	}
	return &output, nil
}

// ConvertOrder converts a scraper row into a provider Order.
// Any unparseable amount or date fails the whole order so bad data never reaches the cache.
func ConvertOrder(raw ScraperOrder) (*providers.Order, error) {
	if strings.TrimSpace(raw.OrderID) == "" {
		return nil, ErrMissingOrderID
	}

	order := &providers.Order{ID: strings.TrimSpace(raw.OrderID)}

	date, err := parseDate(raw.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order date %q: %w", raw.OrderDate, err)
	}
	order.Date = date

	total, err := parseAmount(raw.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total %q: %w", raw.Total, err)
	}
	order.Total = total.InexactFloat64()

	// Optional breakdown, only fail on non-empty invalid values
	for _, field := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"subtotal", raw.Subtotal, &order.Subtotal},
		{"tax", raw.Tax, &order.Tax},
		{"shipping", raw.Shipping, &order.Shipping},
	} {
		amount, err := parseAmount(field.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s %q: %w", field.name, field.raw, err)
		}
		*field.dst = amount.InexactFloat64()
	}

	for i, rawItem := range raw.Items {
		item, err := convertItem(rawItem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse item %d (%q): %w", i, rawItem.Name, err)
		}
		order.Items = append(order.Items, item)
	}

	return order, nil
}

func convertItem(raw ScraperItem) (providers.OrderItem, error) {
	price, err := parseAmount(raw.Price)
	if err != nil {
		return providers.OrderItem{}, fmt.Errorf("failed to parse item price %q: %w", raw.Price, err)
	}

	quantity := raw.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	return providers.OrderItem{
		Name:     strings.TrimSpace(raw.Name),
		Price:    price.InexactFloat64(),
		Quantity: quantity,
	}, nil
}

// parseAmount parses a currency string like "$116.20", "-$50.00" or "$1,234.56".
// Empty input is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, nil
	}

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// parseDate parses the scraper's order dates. ISO 8601 is expected; the long
// US form appears in older scraper versions.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339, "January 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}
