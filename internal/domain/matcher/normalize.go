package matcher

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02"

// ErrInvalidDate is returned when a raw transaction has no usable date
var ErrInvalidDate = errors.New("invalid transaction date")

// RawTransaction is a transaction record as it comes out of the store or the API.
// Date may be a "YYYY-MM-DD..." string, a time.Time or a *time.Time.
type RawTransaction struct {
	ID           string
	Amount       float64 // Signed; outflows are negative
	Date         any
	CategoryID   *string
	CategoryName *string
	Approved     bool
	IsSplit      bool
}

var moneyPrinter = message.NewPrinter(language.English)

// Normalize converts a raw transaction into the matcher's representation.
// The returned Date and DateStr always describe the same calendar day.
func Normalize(raw RawTransaction) (TransactionInfo, error) {
	dateStr, err := dayString(raw.Date)
	if err != nil {
		return TransactionInfo{}, fmt.Errorf("transaction %q: %w", raw.ID, err)
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return TransactionInfo{}, fmt.Errorf("transaction %q: %w: %v", raw.ID, ErrInvalidDate, err)
	}

	info := TransactionInfo{
		TransactionID: raw.ID,
		Amount:        math.Abs(raw.Amount),
		Date:          date,
		DateStr:       dateStr,
		DisplayAmount: FormatDisplayAmount(raw.Amount),
		IsSplit:       raw.IsSplit,
		Approved:      raw.Approved,
	}
	if raw.CategoryID != nil {
		info.CategoryID = *raw.CategoryID
	}
	if raw.CategoryName != nil {
		info.CategoryName = *raw.CategoryName
	}

	return info, nil
}

// NormalizeAll normalizes a batch, stopping at the first bad record.
func NormalizeAll(raws []RawTransaction) ([]TransactionInfo, error) {
	out := make([]TransactionInfo, 0, len(raws))
	for _, raw := range raws {
		info, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// FormatDisplayAmount renders a signed amount as "-$1,234.56" or "$1,234.56".
func FormatDisplayAmount(amount float64) string {
	if amount < 0 {
		return moneyPrinter.Sprintf("-$%.2f", math.Abs(amount))
	}
	return moneyPrinter.Sprintf("$%.2f", amount)
}

// dayString reduces the supported date representations to YYYY-MM-DD
func dayString(v any) (string, error) {
	switch d := v.(type) {
	case string:
		if len(d) < len(dateLayout) {
			return "", fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
		return d[:len(dateLayout)], nil
	case time.Time:
		if d.IsZero() {
			return "", fmt.Errorf("%w: zero time", ErrInvalidDate)
		}
		return d.Format(dateLayout), nil
	case *time.Time:
		if d == nil || d.IsZero() {
			return "", fmt.Errorf("%w: missing", ErrInvalidDate)
		}
		return d.Format(dateLayout), nil
	case nil:
		return "", fmt.Errorf("%w: missing", ErrInvalidDate)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
	}
}
