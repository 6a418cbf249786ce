package handlers

import (
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/api/dto"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
	"github.com/eshaffer321/ynab-reconcile/internal/report"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toTransactionResponse(txn matcher.TransactionInfo) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            txn.TransactionID,
		Date:          txn.DateStr,
		Amount:        txn.Amount,
		DisplayAmount: txn.DisplayAmount,
		Approved:      txn.Approved,
		IsSplit:       txn.IsSplit,
		CategoryID:    txn.CategoryID,
		CategoryName:  txn.CategoryName,
	}
}

func toOrderResponse(order matcher.OrderCacheEntry) dto.OrderResponse {
	items := order.Items
	if items == nil {
		items = []string{}
	}
	return dto.OrderResponse{
		OrderID:   order.OrderID,
		OrderDate: formatDate(order.OrderDate),
		Total:     order.Total,
		Items:     items,
	}
}

func toPairResponses(pairs []matcher.Pair) []dto.PairResponse {
	out := make([]dto.PairResponse, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, dto.PairResponse{
			Transaction: toTransactionResponse(pair.Transaction),
			Order:       toOrderResponse(pair.Order),
			DaysApart:   report.DaysApart(pair),
		})
	}
	return out
}

func toMatchResponse(rep *appsync.MatchReport, opts report.TextOptions) dto.MatchResponse {
	result := rep.Result
	resp := dto.MatchResponse{
		Stage1Matches:         toPairResponses(result.Stage1Matches),
		Stage2Matches:         toPairResponses(result.Stage2Matches),
		DuplicateMatches:      toPairResponses(result.DuplicateMatches),
		ComboMatches:          make([]dto.ComboResponse, 0, len(result.ComboMatches)),
		UnmatchedTransactions: make([]dto.TransactionResponse, 0, len(result.UnmatchedTransactions)),
		UnmatchedOrders:       make([]dto.OrderResponse, 0, len(result.UnmatchedOrders)),
		TransactionCount:      rep.Transactions,
		OrderCount:            rep.Orders,
		OrderRangeStart:       formatDate(rep.Start),
		OrderRangeEnd:         formatDate(rep.End),
		Summary:               report.Summary(result, opts),
	}

	for _, combo := range result.ComboMatches {
		txns := make([]dto.TransactionResponse, 0, len(combo.Transactions))
		for _, txn := range combo.Transactions {
			txns = append(txns, toTransactionResponse(txn))
		}
		resp.ComboMatches = append(resp.ComboMatches, dto.ComboResponse{
			Order:        toOrderResponse(combo.Order),
			Transactions: txns,
			Sum:          combo.Sum(),
		})
	}
	for _, txn := range result.UnmatchedTransactions {
		resp.UnmatchedTransactions = append(resp.UnmatchedTransactions, toTransactionResponse(txn))
	}
	for _, order := range result.UnmatchedOrders {
		resp.UnmatchedOrders = append(resp.UnmatchedOrders, toOrderResponse(order))
	}
	return resp
}

func toPendingChangeResponse(change *storage.PendingChange) dto.PendingChangeResponse {
	return dto.PendingChangeResponse{
		TransactionID:        change.TransactionID,
		Date:                 formatDate(change.Date),
		Amount:               change.Amount,
		PayeeName:            change.PayeeName,
		NewCategoryID:        change.NewCategoryID,
		NewCategoryName:      change.NewCategoryName,
		OriginalCategoryID:   change.OriginalCategoryID,
		OriginalCategoryName: change.OriginalCategoryName,
		NewApproved:          change.NewApproved,
		CreatedAt:            formatTimestamp(change.CreatedAt),
	}
}

func toPendingResponses(changes []*storage.PendingChange) []dto.PendingChangeResponse {
	out := make([]dto.PendingChangeResponse, 0, len(changes))
	for _, change := range changes {
		out = append(out, toPendingChangeResponse(change))
	}
	return out
}

// toSyncRunResponse converts a storage SyncRun to an API response.
func toSyncRunResponse(run storage.SyncRun) dto.SyncRunResponse {
	return dto.SyncRunResponse{
		ID:          run.ID,
		Source:      run.Source,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		DryRun:      run.DryRun,
		Fetched:     run.Fetched,
		Inserted:    run.Inserted,
		Updated:     run.Updated,
		Errored:     run.Errored,
		Status:      run.Status,
	}
}

func toSourceStatusResponse(src appsync.SourceStatus) dto.SourceStatusResponse {
	return dto.SourceStatusResponse{
		Count:        src.Count,
		EarliestDate: src.EarliestDate,
		LatestDate:   src.LatestDate,
		LastSyncDate: formatDate(src.LastSyncDate),
		LastSyncAt:   formatTimestamp(src.LastSyncAt),
	}
}

func toPullResultResponse(result *appsync.PullResult) dto.PullResultResponse {
	return dto.PullResultResponse{
		Source:     result.Source,
		RunID:      result.RunID,
		Fetched:    result.Fetched,
		Inserted:   result.Inserted,
		Updated:    result.Updated,
		Total:      result.Total,
		OldestDate: formatDate(result.OldestDate),
		NewestDate: formatDate(result.NewestDate),
		Conflicts:  result.Conflicts,
		Fixed:      result.Fixed,
		Errors:     result.Errors,
	}
}
