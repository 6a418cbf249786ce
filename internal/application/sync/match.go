package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// Match runs the matcher over stored Amazon transactions and cached orders.
// Orders are loaded for the transactions' date span widened by the stage 2 window.
func (s *Service) Match(ctx context.Context, opts MatchOptions) (*MatchReport, error) {
	started := s.now()
	cfg := s.matcher.Config()

	filter := storage.TransactionFilter{
		PayeeContains: s.settings.PayeeFilter,
		Since:         opts.Since,
	}
	universe, err := s.loadTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	txns := universe
	if opts.UncategorizedOnly {
		txns = uncategorized(universe)
	}

	report := &MatchReport{Transactions: len(txns)}
	if len(txns) == 0 {
		s.logger.Info("No transactions to match", "payee_filter", s.settings.PayeeFilter)
		return report, nil
	}

	report.Start, report.End = matcher.DateRange(txns, cfg.Stage2Window)
	orders, err := s.repo.GetCachedOrdersByDateRange(ctx, report.Start, report.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	report.Orders = len(orders)

	// Categorized transactions still claim their orders so those orders are
	// not reported as unmatched
	report.Result = s.matcher.Match(txns, orders, universe)
	report.Duration = s.now().Sub(started)

	s.metrics.RecordMatch(bucketCounts(report.Result), report.Duration)
	s.logger.Info("Match complete",
		"transactions", report.Transactions,
		"orders", report.Orders,
		"stage1", len(report.Result.Stage1Matches),
		"stage2", len(report.Result.Stage2Matches),
		"duplicates", len(report.Result.DuplicateMatches),
		"combos", len(report.Result.ComboMatches),
		"unmatched_transactions", len(report.Result.UnmatchedTransactions),
		"unmatched_orders", len(report.Result.UnmatchedOrders),
		"duration", report.Duration)

	return report, nil
}

// loadTransactions reads stored transactions and normalizes them for the matcher
func (s *Service) loadTransactions(ctx context.Context, filter storage.TransactionFilter) ([]matcher.TransactionInfo, error) {
	rows, err := s.repo.GetTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	raws := make([]matcher.RawTransaction, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, toRawTransaction(row))
	}
	return matcher.NormalizeAll(raws)
}

func toRawTransaction(row *storage.Transaction) matcher.RawTransaction {
	raw := matcher.RawTransaction{
		ID:       row.ID,
		Amount:   row.Amount,
		Date:     row.Date,
		Approved: row.Approved,
		IsSplit:  row.IsSplit,
	}
	if row.CategoryID != "" {
		raw.CategoryID = &row.CategoryID
		raw.CategoryName = &row.CategoryName
	}
	return raw
}

func uncategorized(txns []matcher.TransactionInfo) []matcher.TransactionInfo {
	var out []matcher.TransactionInfo
	for _, txn := range txns {
		if txn.CategoryID == "" {
			out = append(out, txn)
		}
	}
	return out
}

func bucketCounts(r matcher.MatchResult) map[string]int {
	return map[string]int{
		metrics.BucketStage1:    len(r.Stage1Matches),
		metrics.BucketStage2:    len(r.Stage2Matches),
		metrics.BucketDuplicate: len(r.DuplicateMatches),
		metrics.BucketCombo:     len(r.ComboMatches),
		metrics.BucketUnmatched: len(r.UnmatchedTransactions),
		metrics.BucketOrphan:    len(r.UnmatchedOrders),
	}
}

// SinceDays converts a day count into a Since cutoff; 0 means all time
func (s *Service) SinceDays(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return s.now().AddDate(0, 0, -days)
}
