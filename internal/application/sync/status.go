package sync

import (
	"context"
	"fmt"
)

// Ping checks that the store is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Status reports what the store holds and when each source was last pulled
func (s *Service) Status(ctx context.Context) (*Status, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	status := &Status{
		YNAB: SourceStatus{
			Count:        stats.TransactionCount,
			EarliestDate: stats.EarliestTxnDate,
			LatestDate:   stats.LatestTxnDate,
		},
		Amazon: SourceStatus{
			Count:        stats.OrderCount,
			EarliestDate: stats.EarliestOrderDate,
			LatestDate:   stats.LatestOrderDate,
		},
		Uncategorized: stats.UncategorizedCount,
		Conflicts:     stats.ConflictCount,
		PendingPush:   stats.PendingCount,
		OrderItems:    stats.OrderItemCount,
	}

	for key, src := range map[string]*SourceStatus{SourceYNAB: &status.YNAB, SourceAmazon: &status.Amazon} {
		state, err := s.repo.GetSyncState(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s sync state: %w", key, err)
		}
		if state != nil {
			src.LastSyncDate = state.LastSyncDate
			src.LastSyncAt = state.LastSyncAt
		}
	}

	return status, nil
}
