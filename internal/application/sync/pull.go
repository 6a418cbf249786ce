package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// ErrAmazonNotConfigured is reported when a pull needs orders but no provider was given
var ErrAmazonNotConfigured = errors.New("amazon order provider not configured")

// Pull fetches YNAB transactions and Amazon orders concurrently.
// Source failures are reported in each PullResult; the error is only
// non-nil when ctx is cancelled.
func (s *Service) Pull(ctx context.Context, opts PullOptions) (map[string]*PullResult, error) {
	var ynabResult, amazonResult *PullResult

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ynabResult = s.PullYNAB(gCtx, opts)
		return gCtx.Err()
	})
	g.Go(func() error {
		amazonResult = s.PullAmazon(gCtx, opts)
		return gCtx.Err()
	})

	err := g.Wait()
	return map[string]*PullResult{
		SourceYNAB:   ynabResult,
		SourceAmazon: amazonResult,
	}, err
}

// PullYNAB fetches transactions into the store.
// Incremental pulls start OverlapDays before the last sync to catch late-posting charges.
func (s *Service) PullYNAB(ctx context.Context, opts PullOptions) *PullResult {
	result := &PullResult{Source: SourceYNAB}
	result.RunID = s.startRun(ctx, SourceYNAB, opts.DryRun)
	defer func() {
		s.completeRun(ctx, result.RunID, storage.RunCounts{
			Fetched:  result.Fetched,
			Inserted: result.Inserted,
			Updated:  result.Updated,
			Errored:  len(result.Errors),
		})
	}()

	since, err := s.ynabSince(ctx, opts)
	if err != nil {
		return s.pullFailed(result, err)
	}

	s.logger.Debug("Fetching YNAB transactions", "since", formatDay(since), "full", opts.Full)

	txns, err := s.budget.GetTransactions(ctx, since)
	if err != nil {
		return s.pullFailed(result, fmt.Errorf("failed to fetch transactions: %w", err))
	}
	result.Fetched = len(txns)

	for _, txn := range txns {
		if result.OldestDate.IsZero() || txn.Date.Before(result.OldestDate) {
			result.OldestDate = txn.Date
		}
		if txn.Date.After(result.NewestDate) {
			result.NewestDate = txn.Date
		}

		row := toStorageTransaction(txn)
		if opts.DryRun {
			s.compareTransaction(ctx, row, result)
			continue
		}

		inserted, changed, err := s.repo.UpsertTransaction(ctx, row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("transaction %s: %v", txn.ID, err))
			continue
		}
		switch {
		case inserted:
			result.Inserted++
		case changed:
			result.Updated++
		}
	}

	if !opts.DryRun {
		s.reconcileConflicts(ctx, opts.Fix, result)
	}

	if result.Total, err = s.repo.GetTransactionCount(ctx); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	if !opts.DryRun && (result.Fetched > 0 || result.Total > 0) {
		if err := s.repo.UpdateSyncState(ctx, SourceYNAB, s.now(), result.Total); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	s.metrics.RecordPull(SourceYNAB, "inserted", result.Inserted)
	s.metrics.RecordPull(SourceYNAB, "updated", result.Updated)
	s.logger.Info("YNAB pull complete",
		"dry_run", opts.DryRun,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"conflicts", result.Conflicts)

	return result
}

// PullAmazon fetches orders into the order cache.
// Full pulls and first pulls go back EarliestHistoryDays.
func (s *Service) PullAmazon(ctx context.Context, opts PullOptions) *PullResult {
	result := &PullResult{Source: SourceAmazon}
	if s.orders == nil {
		return s.pullFailed(result, ErrAmazonNotConfigured)
	}

	result.RunID = s.startRun(ctx, SourceAmazon, opts.DryRun)
	defer func() {
		s.completeRun(ctx, result.RunID, storage.RunCounts{
			Fetched:  result.Fetched,
			Inserted: result.Inserted,
			Updated:  result.Updated,
			Errored:  len(result.Errors),
		})
	}()

	start, err := s.amazonSince(ctx, opts)
	if err != nil {
		return s.pullFailed(result, err)
	}
	end := s.now()

	orders, err := s.orders.FetchOrders(ctx, providers.FetchOptions{StartDate: start, EndDate: end})
	if err != nil {
		return s.pullFailed(result, fmt.Errorf("failed to fetch orders: %w", err))
	}
	result.Fetched = len(orders)

	for _, order := range orders {
		if result.OldestDate.IsZero() || order.Date.Before(result.OldestDate) {
			result.OldestDate = order.Date
		}
		if order.Date.After(result.NewestDate) {
			result.NewestDate = order.Date
		}

		if opts.DryRun {
			s.compareOrder(ctx, order, result)
			continue
		}

		row := order.StorageOrder()
		inserted, changed, err := s.repo.CacheOrder(ctx, row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("order %s: %v", order.ID, err))
			continue
		}
		switch {
		case inserted:
			result.Inserted++
		case changed:
			result.Updated++
		}

		// Items are the source of truth for item data; always refresh them
		if err := s.repo.UpsertOrderItems(ctx, order.ID, row.Items); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("order %s items: %v", order.ID, err))
		}
	}

	if result.Total, err = s.repo.GetOrderCount(ctx); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	if !opts.DryRun && (result.Fetched > 0 || result.Total > 0) {
		if err := s.repo.UpdateSyncState(ctx, SourceAmazon, end, result.Total); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	s.metrics.RecordPull(SourceAmazon, "inserted", result.Inserted)
	s.metrics.RecordPull(SourceAmazon, "updated", result.Updated)
	s.logger.Info("Amazon pull complete",
		"dry_run", opts.DryRun,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"updated", result.Updated)

	return result
}

// ynabSince returns the earliest date to request; zero means everything
func (s *Service) ynabSince(ctx context.Context, opts PullOptions) (time.Time, error) {
	if opts.SinceDays > 0 {
		return s.now().AddDate(0, 0, -opts.SinceDays), nil
	}
	if opts.Full {
		return time.Time{}, nil
	}

	state, err := s.repo.GetSyncState(ctx, SourceYNAB)
	if err != nil {
		return time.Time{}, err
	}
	if state == nil || state.LastSyncDate.IsZero() {
		return time.Time{}, nil
	}
	return state.LastSyncDate.AddDate(0, 0, -s.settings.OverlapDays), nil
}

func (s *Service) amazonSince(ctx context.Context, opts PullOptions) (time.Time, error) {
	now := s.now()
	if opts.SinceDays > 0 {
		return now.AddDate(0, 0, -opts.SinceDays), nil
	}
	history := now.AddDate(0, 0, -s.settings.EarliestHistoryDays)
	if opts.Full {
		return history, nil
	}

	state, err := s.repo.GetSyncState(ctx, SourceAmazon)
	if err != nil {
		return time.Time{}, err
	}
	if state == nil || state.LastSyncDate.IsZero() {
		// First sync fetches the same history as a full pull
		return history, nil
	}
	return state.LastSyncDate.AddDate(0, 0, -s.settings.OverlapDays), nil
}

// reconcileConflicts counts conflicts and, with fix, queues each one so the
// next push writes the local category back to YNAB
func (s *Service) reconcileConflicts(ctx context.Context, fix bool, result *PullResult) {
	conflicts, err := s.repo.GetConflicts(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	result.Conflicts = len(conflicts)

	for _, txn := range conflicts {
		s.logger.Info("Conflict: YNAB cleared a local category",
			"transaction", txn.ID,
			"payee", txn.PayeeName,
			"amount", txn.Amount,
			"local_category", txn.CategoryName)

		if !fix {
			continue
		}
		outcome, err := s.repo.SetPendingChange(ctx, &storage.PendingChange{
			TransactionID:    txn.ID,
			NewCategoryID:    txn.CategoryID,
			NewCategoryName:  txn.CategoryName,
			NewApproved:      txn.Approved,
			OriginalApproved: txn.Approved,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("fix %s: %v", txn.ID, err))
			continue
		}
		if outcome != storage.PendingDeleted {
			result.Fixed++
		}
	}
}

// compareTransaction counts what an upsert would do without writing
func (s *Service) compareTransaction(ctx context.Context, row *storage.Transaction, result *PullResult) {
	existing, err := s.repo.GetTransaction(ctx, row.ID)
	if errors.Is(err, storage.ErrNotFound) {
		result.Inserted++
		return
	}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	if existing.SyncStatus == storage.StatusPendingPush {
		// A pull never touches a transaction with a local edit
		return
	}
	if existing.CategoryID != "" && row.CategoryID == "" {
		result.Conflicts++
	}
	if formatDay(existing.Date) != formatDay(row.Date) ||
		existing.Amount != row.Amount ||
		existing.PayeeName != row.PayeeName ||
		existing.CategoryID != row.CategoryID ||
		existing.Memo != row.Memo ||
		existing.Approved != row.Approved {
		result.Updated++
	}
}

func (s *Service) compareOrder(ctx context.Context, order *providers.Order, result *PullResult) {
	existing, err := s.repo.GetCachedOrder(ctx, order.ID)
	if errors.Is(err, storage.ErrNotFound) {
		result.Inserted++
		return
	}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	if formatDay(existing.OrderDate) != formatDay(order.Date) || existing.Total != order.Total {
		result.Updated++
	}
}

func (s *Service) pullFailed(result *PullResult, err error) *PullResult {
	s.metrics.IncrPullError(result.Source)
	s.logger.Error("Pull failed", "source", result.Source, "error", err)
	result.Errors = append(result.Errors, err.Error())
	return result
}

func toStorageTransaction(txn ynab.Transaction) *storage.Transaction {
	return &storage.Transaction{
		ID:           txn.ID,
		Date:         txn.Date,
		Amount:       txn.Amount,
		PayeeName:    txn.PayeeName,
		PayeeID:      txn.PayeeID,
		CategoryID:   txn.CategoryID,
		CategoryName: txn.CategoryName,
		AccountName:  txn.AccountName,
		AccountID:    txn.AccountID,
		Memo:         txn.Memo,
		Cleared:      txn.Cleared,
		Approved:     txn.Approved,
		IsSplit:      txn.IsSplit,
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
