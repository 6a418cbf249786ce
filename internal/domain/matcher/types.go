package matcher

import (
	"time"
)

// Config holds matcher configuration
type Config struct {
	Stage1Window    int     // Days tolerance for the first pass (default: 7)
	Stage2Window    int     // Days tolerance for the extended pass (default: 24)
	AmountTolerance float64 // Default: 0.10
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Stage1Window:    7,
		Stage2Window:    24,
		AmountTolerance: 0.10,
	}
}

// TransactionInfo is the normalized view of a budget transaction used for matching.
type TransactionInfo struct {
	TransactionID string
	Amount        float64   // Always positive (absolute value)
	Date          time.Time // Midnight UTC of the posting day
	DateStr       string    // YYYY-MM-DD
	DisplayAmount string    // "-$1,234.56" or "$1,234.56"

	// Pass-through metadata, not used for matching
	IsSplit      bool
	CategoryID   string
	CategoryName string
	Approved     bool
}

// OrderCacheEntry is a cached retailer order
type OrderCacheEntry struct {
	OrderID   string
	OrderDate time.Time
	Total     float64
	Items     []string // Item names, display only
}

// Pair links one transaction to one order
type Pair struct {
	Transaction TransactionInfo
	Order       OrderCacheEntry
}

// ComboMatch is an order paid by several transactions (split shipments)
type ComboMatch struct {
	Order        OrderCacheEntry
	Transactions []TransactionInfo
}

// Sum returns the combined magnitude of the combo's transactions.
func (c ComboMatch) Sum() float64 {
	return sumAmounts(c.Transactions)
}

// MatchResult contains the classified output of a match run
type MatchResult struct {
	Stage1Matches         []Pair
	Stage2Matches         []Pair
	DuplicateMatches      []Pair // Order was already claimed by a better-ranked transaction
	ComboMatches          []ComboMatch
	UnmatchedTransactions []TransactionInfo
	UnmatchedOrders       []OrderCacheEntry
}

// AllMatches returns the 1:1 matches, stage 1 first.
func (r MatchResult) AllMatches() []Pair {
	all := make([]Pair, 0, len(r.Stage1Matches)+len(r.Stage2Matches))
	all = append(all, r.Stage1Matches...)
	return append(all, r.Stage2Matches...)
}

// TotalMatched is the number of 1:1 matches
func (r MatchResult) TotalMatched() int {
	return len(r.Stage1Matches) + len(r.Stage2Matches)
}
