package matcher

import (
	"github.com/shopspring/decimal"
)

// maxComboSize caps how many transactions may pay a single order
const maxComboSize = 4

// FindUnmatchedOrders returns the orders that no transaction in allTransactions
// could pay: nothing within windowDays of the order date and amountTolerance of
// its total. Zero-total orders are never reported.
func FindUnmatchedOrders(
	orders []OrderCacheEntry,
	allTransactions []TransactionInfo,
	windowDays int,
	amountTolerance float64,
) []OrderCacheEntry {
	var unmatched []OrderCacheEntry
	for _, order := range orders {
		if order.Total == 0 {
			continue
		}

		found := false
		for _, txn := range allTransactions {
			if daysBetween(txn.Date, order.OrderDate) <= windowDays &&
				withinTolerance(order.Total, txn.Amount, amountTolerance) {
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, order)
		}
	}
	return unmatched
}

// FindComboMatches looks for orders paid by 2-4 transactions whose amounts sum
// to the order total. Orders are tried in input order and the first fitting
// subset wins; a transaction is used by at most one combo.
func FindComboMatches(
	transactions []TransactionInfo,
	orders []OrderCacheEntry,
	windowDays int,
	amountTolerance float64,
) []ComboMatch {
	combos, _ := comboSearch(transactions, orders, windowDays, amountTolerance)
	return combos
}

// comboSearch does the work for FindComboMatches and also reports which
// transaction positions the combos consumed.
func comboSearch(
	transactions []TransactionInfo,
	orders []OrderCacheEntry,
	windowDays int,
	amountTolerance float64,
) ([]ComboMatch, []bool) {
	used := make([]bool, len(transactions))
	tolerance := decimal.NewFromFloat(amountTolerance).Add(decimal.NewFromFloat(amountEpsilon))

	var combos []ComboMatch
	for _, order := range orders {
		if order.Total == 0 {
			continue
		}

		var nearby []int
		for i, txn := range transactions {
			if !used[i] && daysBetween(txn.Date, order.OrderDate) <= windowDays {
				nearby = append(nearby, i)
			}
		}
		if len(nearby) < 2 {
			continue
		}

		total := decimal.NewFromFloat(order.Total)
		subset := firstFit(transactions, nearby, total, tolerance)
		if subset == nil {
			continue
		}

		combo := ComboMatch{Order: order, Transactions: make([]TransactionInfo, 0, len(subset))}
		for _, i := range subset {
			used[i] = true
			combo.Transactions = append(combo.Transactions, transactions[i])
		}
		combos = append(combos, combo)
	}

	return combos, used
}

// firstFit walks subsets of nearby from size 2 upward in lexicographic order
// and returns the first one summing to within tolerance of total.
func firstFit(transactions []TransactionInfo, nearby []int, total, tolerance decimal.Decimal) []int {
	maxSize := min(maxComboSize, len(nearby))
	for size := 2; size <= maxSize; size++ {
		var hit []int
		eachCombination(len(nearby), size, func(pick []int) bool {
			sum := decimal.Zero
			for _, p := range pick {
				sum = sum.Add(decimal.NewFromFloat(transactions[nearby[p]].Amount))
			}
			if sum.Sub(total).Abs().LessThanOrEqual(tolerance) {
				hit = make([]int, len(pick))
				for i, p := range pick {
					hit[i] = nearby[p]
				}
				return false
			}
			return true
		})
		if hit != nil {
			return hit
		}
	}
	return nil
}

// eachCombination calls fn with every k-subset of [0, n) in lexicographic
// order until fn returns false. The slice passed to fn is reused.
func eachCombination(n, k int, fn func([]int) bool) {
	if k <= 0 || k > n {
		return
	}
	pick := make([]int, k)
	for i := range pick {
		pick[i] = i
	}
	for {
		if !fn(pick) {
			return
		}

		i := k - 1
		for i >= 0 && pick[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		pick[i]++
		for j := i + 1; j < k; j++ {
			pick[j] = pick[j-1] + 1
		}
	}
}

// sumAmounts adds transaction magnitudes without float drift
func sumAmounts(txns []TransactionInfo) float64 {
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(decimal.NewFromFloat(t.Amount))
	}
	return sum.InexactFloat64()
}
