// Package report renders match results for people: a sectioned console
// report and an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
)

const (
	dateLayout = "2006-01-02"
	rule       = "============================================================"
)

// TextOptions controls the console report
type TextOptions struct {
	Stage1Window int
	Stage2Window int
}

// WriteText writes the match report section by section. Empty sections are
// omitted; the summary line is always written.
func WriteText(w io.Writer, result matcher.MatchResult, opts TextOptions) error {
	p := &printer{w: w}

	if len(result.Stage1Matches) > 0 {
		p.header(fmt.Sprintf("Matched YNAB transactions (%d-day window):", opts.Stage1Window))
		for _, pair := range result.Stage1Matches {
			p.line("YNAB: %s  Amazon  %s%s", pair.Transaction.DateStr, pair.Transaction.DisplayAmount, approvedMarker(pair.Transaction))
			p.line("  → MATCH: Order %s (%s) %s", pair.Order.OrderID, pair.Order.OrderDate.Format(dateLayout), money(pair.Order.Total))
			p.line("    Items: %s", itemSummary(pair.Order.Items, 60))
			p.blank()
		}
		p.line("Matched (%d-day): %d transactions", opts.Stage1Window, len(result.Stage1Matches))
		p.blank()
	}

	if len(result.Stage2Matches) > 0 {
		p.header(fmt.Sprintf("Matched YNAB transactions (%d-day extended window):", opts.Stage2Window))
		for _, pair := range result.Stage2Matches {
			p.line("YNAB: %s  Amazon  %s%s", pair.Transaction.DateStr, pair.Transaction.DisplayAmount, approvedMarker(pair.Transaction))
			p.line("  → EXTENDED MATCH: Order %s (%s) %s [%d days apart]",
				pair.Order.OrderID, pair.Order.OrderDate.Format(dateLayout), money(pair.Order.Total), DaysApart(pair))
			p.line("    Items: %s", itemSummary(pair.Order.Items, 60))
			p.blank()
		}
		p.line("Matched (%d-day extended): %d transactions", opts.Stage2Window, len(result.Stage2Matches))
		p.blank()
	}

	if len(result.DuplicateMatches) > 0 {
		p.header("Duplicate matches (same order matched multiple transactions):")
		for _, group := range GroupDuplicates(result) {
			order := group.Order
			p.line("Order: %s (%s) %s - %s", order.OrderID, order.OrderDate.Format(dateLayout), money(order.Total), itemSummary(order.Items, 50))
			if group.Original != nil {
				p.line("  Matched to: %s %s%s", group.Original.DateStr, group.Original.DisplayAmount, approvedMarker(*group.Original))
			} else {
				p.line("  Matched to: (original match)")
			}
			p.line("  Also matches:")
			for _, txn := range group.Transactions {
				p.line("    • %s  %s%s", txn.DateStr, txn.DisplayAmount, approvedMarker(txn))
			}
			p.blank()
		}
		p.line("Duplicates: %d transaction(s) matching already-used orders", len(result.DuplicateMatches))
		p.blank()
	}

	if len(result.ComboMatches) > 0 {
		p.header("Combination matches (split shipments):")
		combos := append([]matcher.ComboMatch(nil), result.ComboMatches...)
		sort.SliceStable(combos, func(i, j int) bool {
			return combos[i].Order.OrderDate.After(combos[j].Order.OrderDate)
		})
		for _, combo := range combos {
			p.line("Order: %s  %s - %s", combo.Order.OrderDate.Format(dateLayout), money(combo.Order.Total), itemSummary(combo.Order.Items, 50))
			p.line("  → COMBO MATCH: %d transactions sum to %s", len(combo.Transactions), money(combo.Sum()))
			for _, txn := range combo.Transactions {
				p.line("      • %s  %s%s", txn.DateStr, money(txn.Amount), approvedMarker(txn))
			}
			p.blank()
		}
		p.line("Combo matched: %d orders", len(result.ComboMatches))
		p.blank()
	}

	if len(result.UnmatchedTransactions) > 0 || len(result.UnmatchedOrders) > 0 {
		p.header("Unmatched items:")
		if len(result.UnmatchedTransactions) > 0 {
			p.line("Transactions without matching orders:")
			for _, txn := range result.UnmatchedTransactions {
				p.line("  • %s  Amazon  -%s%s", txn.DateStr, money(txn.Amount), approvedMarker(txn))
			}
			p.blank()
		}
		if len(result.UnmatchedOrders) > 0 {
			p.line("Orders without matching transactions:")
			orders := append([]matcher.OrderCacheEntry(nil), result.UnmatchedOrders...)
			sort.SliceStable(orders, func(i, j int) bool {
				return orders[i].OrderDate.After(orders[j].OrderDate)
			})
			for _, order := range orders {
				p.line("  • %s  %s - %s", order.OrderDate.Format(dateLayout), money(order.Total), itemSummary(order.Items, 50))
			}
			p.blank()
		}
	}

	p.line("%s", rule)
	p.line("Summary: %s", Summary(result, opts))
	return p.err
}

// Summary is the one-line bucket count, e.g. "3 matched (7d), 1 combo"
func Summary(result matcher.MatchResult, opts TextOptions) string {
	var parts []string
	if n := len(result.Stage1Matches); n > 0 {
		parts = append(parts, fmt.Sprintf("%d matched (%dd)", n, opts.Stage1Window))
	}
	if n := len(result.Stage2Matches); n > 0 {
		parts = append(parts, fmt.Sprintf("%d extended (%dd)", n, opts.Stage2Window))
	}
	if n := len(result.DuplicateMatches); n > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", n))
	}
	if n := len(result.ComboMatches); n > 0 {
		parts = append(parts, fmt.Sprintf("%d combo", n))
	}
	if n := len(result.UnmatchedTransactions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unmatched txns", n))
	}
	if n := len(result.UnmatchedOrders); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unmatched orders", n))
	}
	if len(parts) == 0 {
		return "nothing to match"
	}
	return strings.Join(parts, ", ")
}

// DuplicateGroup is one claimed order and the transactions that also fit it
type DuplicateGroup struct {
	Order        matcher.OrderCacheEntry
	Original     *matcher.TransactionInfo // The transaction the order was matched to, if any
	Transactions []matcher.TransactionInfo
}

// GroupDuplicates groups duplicate matches by order, in first-seen order
func GroupDuplicates(result matcher.MatchResult) []DuplicateGroup {
	var groups []DuplicateGroup
	index := make(map[string]int)

	for _, pair := range result.DuplicateMatches {
		i, ok := index[pair.Order.OrderID]
		if !ok {
			i = len(groups)
			index[pair.Order.OrderID] = i
			groups = append(groups, DuplicateGroup{Order: pair.Order})
		}
		groups[i].Transactions = append(groups[i].Transactions, pair.Transaction)
	}

	for _, pair := range result.AllMatches() {
		if i, ok := index[pair.Order.OrderID]; ok && groups[i].Original == nil {
			txn := pair.Transaction
			groups[i].Original = &txn
		}
	}
	return groups
}

// DaysApart is the calendar day gap between a pair's transaction and order
func DaysApart(pair matcher.Pair) int {
	t, o := pair.Transaction.Date, pair.Order.OrderDate
	a := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(o.Year(), o.Month(), o.Day(), 0, 0, 0, 0, time.UTC)
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func approvedMarker(txn matcher.TransactionInfo) string {
	if txn.Approved {
		return " A"
	}
	return ""
}

func money(v float64) string {
	return matcher.FormatDisplayAmount(v)
}

// itemSummary joins item names, truncating to max runes with an ellipsis
func itemSummary(items []string, max int) string {
	s := strings.Join(items, "; ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) blank() {
	p.line("")
}

func (p *printer) header(title string) {
	p.line("%s", rule)
	p.line("%s", title)
	p.line("%s", rule)
	p.blank()
}
