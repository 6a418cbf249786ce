// Package matcher reconciles budget transactions with cached retailer orders.
//
// Matching runs in two stages:
//   - Stage 1 pairs transactions and orders whose totals agree within the
//     amount tolerance and whose dates fall inside a narrow window.
//   - Stage 2 retries the leftovers with an extended window, for charges that
//     post long after the order (backorders, delayed captures).
//
// Within a stage candidates are ranked by (amount difference, date difference)
// and assigned greedily, so an exact amount always beats a fuzzy one. A
// transaction that ranks for an order that is already taken is reported as a
// duplicate. Orders left over afterwards are checked for split-shipment
// billing, where 2-4 transactions sum to the order total.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.Match(transactions, orders, nil)
//	for _, pair := range result.AllMatches() {
//		fmt.Println(pair.Transaction.TransactionID, pair.Order.OrderID)
//	}
//
// The matcher performs no I/O and keeps no state between calls.
package matcher

import (
	"math"
	"sort"
	"time"
)

// amountEpsilon absorbs floating point noise when comparing against the tolerance
const amountEpsilon = 0.0000001

// Matcher matches transactions with orders using a fixed Config
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher's configuration
func (m *Matcher) Config() Config {
	return m.config
}

// Match runs the two-stage match with the matcher's windows and tolerance.
// all is the transaction universe used for unmatched-order detection; nil means transactions.
func (m *Matcher) Match(transactions []TransactionInfo, orders []OrderCacheEntry, all []TransactionInfo) MatchResult {
	return MatchTwoStage(
		transactions,
		orders,
		m.config.Stage1Window,
		m.config.Stage2Window,
		m.config.AmountTolerance,
		all,
	)
}

// FindOrderMatch finds the best order for txn within windowDays using the matcher's tolerance
func (m *Matcher) FindOrderMatch(
	txn TransactionInfo,
	orders []OrderCacheEntry,
	windowDays int,
	excludeOrderIDs map[string]bool,
) (OrderCacheEntry, bool) {
	return FindBestMatch(txn, orders, windowDays, m.config.AmountTolerance, excludeOrderIDs)
}

// FindBestMatch returns the order closest in date to txn whose total is within
// amountTolerance and whose date is within windowDays. Date ties go to the
// lower order ID. Returns false if nothing qualifies.
func FindBestMatch(
	txn TransactionInfo,
	orders []OrderCacheEntry,
	windowDays int,
	amountTolerance float64,
	excludeOrderIDs map[string]bool,
) (OrderCacheEntry, bool) {
	var best OrderCacheEntry
	bestDiff := -1

	for _, order := range orders {
		if excludeOrderIDs[order.OrderID] || order.Total == 0 {
			continue
		}
		if !withinTolerance(order.Total, txn.Amount, amountTolerance) {
			continue
		}

		dateDiff := daysBetween(txn.Date, order.OrderDate)
		if dateDiff > windowDays {
			continue
		}

		if bestDiff < 0 || dateDiff < bestDiff || (dateDiff == bestDiff && order.OrderID < best.OrderID) {
			best = order
			bestDiff = dateDiff
		}
	}

	return best, bestDiff >= 0
}

// candidate is a scored (transaction, order) pairing within one stage
type candidate struct {
	txn        int // index into transactions
	order      int // index into orders
	amountDiff float64
	dateDiff   int
}

// claims tracks which transactions and orders a run has consumed, by index
type claims struct {
	txns   []bool
	orders []bool
}

// MatchTwoStage matches transactions to orders using a narrow then an extended date window.
func MatchTwoStage(
	transactions []TransactionInfo,
	orders []OrderCacheEntry,
	stage1Window int,
	stage2Window int,
	amountTolerance float64,
	allTransactions []TransactionInfo,
) MatchResult {
	if allTransactions == nil {
		allTransactions = transactions
	}

	result := MatchResult{}
	c := &claims{
		txns:   make([]bool, len(transactions)),
		orders: make([]bool, len(orders)),
	}

	// Stage 1: strict window
	stage1, dups := runStage(transactions, c.open(), orders, stage1Window, amountTolerance, c)
	result.Stage1Matches = stage1
	result.DuplicateMatches = append(result.DuplicateMatches, dups...)

	// Stage 2: extended window over whatever stage 1 left behind
	stage2, dups := runStage(transactions, c.open(), orders, stage2Window, amountTolerance, c)
	result.Stage2Matches = stage2
	result.DuplicateMatches = append(result.DuplicateMatches, dups...)

	leftIdx := c.open()
	leftTxns := make([]TransactionInfo, len(leftIdx))
	for i, ti := range leftIdx {
		leftTxns[i] = transactions[ti]
	}

	unmatchedOrders := FindUnmatchedOrders(orders, allTransactions, stage2Window, amountTolerance)
	combos, comboTxns := comboSearch(leftTxns, unmatchedOrders, stage2Window, amountTolerance)
	result.ComboMatches = combos

	comboOrders := make(map[string]bool, len(combos))
	for _, combo := range combos {
		comboOrders[combo.Order.OrderID] = true
	}
	for i, txn := range leftTxns {
		if !comboTxns[i] {
			result.UnmatchedTransactions = append(result.UnmatchedTransactions, txn)
		}
	}
	for _, order := range unmatchedOrders {
		if !comboOrders[order.OrderID] {
			result.UnmatchedOrders = append(result.UnmatchedOrders, order)
		}
	}

	return result
}

// open returns the indices of transactions not yet consumed, in input order
func (c *claims) open() []int {
	idx := make([]int, 0, len(c.txns))
	for i, used := range c.txns {
		if !used {
			idx = append(idx, i)
		}
	}
	return idx
}

// runStage generates, ranks and greedily assigns candidates for one window.
// Returns the stage's matches and the duplicates it found.
func runStage(
	transactions []TransactionInfo,
	txnIdx []int,
	orders []OrderCacheEntry,
	windowDays int,
	amountTolerance float64,
	c *claims,
) ([]Pair, []Pair) {
	var candidates []candidate
	for _, ti := range txnIdx {
		txn := transactions[ti]
		for oi, order := range orders {
			if order.Total == 0 {
				continue
			}
			if !withinTolerance(order.Total, txn.Amount, amountTolerance) {
				continue
			}
			dateDiff := daysBetween(txn.Date, order.OrderDate)
			if dateDiff > windowDays {
				continue
			}
			candidates = append(candidates, candidate{
				txn:        ti,
				order:      oi,
				amountDiff: roundCents(math.Abs(order.Total - txn.Amount)),
				dateDiff:   dateDiff,
			})
		}
	}

	// Exact amounts first, then closest dates. Order ID makes ties deterministic;
	// the stable sort keeps input order for anything still equal.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.amountDiff != b.amountDiff {
			return a.amountDiff < b.amountDiff
		}
		if a.dateDiff != b.dateDiff {
			return a.dateDiff < b.dateDiff
		}
		return orders[a.order].OrderID < orders[b.order].OrderID
	})

	var matches, duplicates []Pair
	for _, cand := range candidates {
		if c.txns[cand.txn] {
			continue
		}

		pair := Pair{Transaction: transactions[cand.txn], Order: orders[cand.order]}
		if !c.orders[cand.order] {
			c.orders[cand.order] = true
			matches = append(matches, pair)
		} else {
			duplicates = append(duplicates, pair)
		}
		c.txns[cand.txn] = true
	}

	return matches, duplicates
}

// withinTolerance reports whether two magnitudes agree within tolerance
func withinTolerance(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance+amountEpsilon
}

// roundCents snaps a difference to whole cents so 0.1-0.1 style noise ranks as exact
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// daysBetween returns the absolute number of calendar days between a and b.
// Time of day and location are ignored.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
