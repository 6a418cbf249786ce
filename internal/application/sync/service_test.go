package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

func amazonTxn(id, date string, amount float64, categoryID string) storage.Transaction {
	return storage.Transaction{
		ID:         id,
		Date:       day(date),
		Amount:     amount,
		PayeeName:  "Amazon.com",
		CategoryID: categoryID,
	}
}

func TestMatch_ClassifiesBuckets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTransaction(t, amazonTxn("t1", "2026-10-03", -25.99, ""))
	env.seedTransaction(t, amazonTxn("t2", "2026-10-20", -12.50, ""))
	env.seedTransaction(t, storage.Transaction{ID: "t3", Date: day("2026-10-03"), Amount: -25.99, PayeeName: "Costco"})
	env.seedOrder(t, "111-1", "2026-10-01", 25.99, "Book")
	env.seedOrder(t, "111-2", "2026-10-01", 12.50, "Cable")
	env.seedOrder(t, "111-3", "2026-09-28", 40.00, "Lamp")

	report, err := env.svc.Match(ctx, MatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Transactions, "non-Amazon payees are excluded")
	assert.Equal(t, 3, report.Orders)
	assert.Equal(t, day("2026-09-09"), report.Start)
	assert.Equal(t, day("2026-11-13"), report.End)

	result := report.Result
	require.Len(t, result.Stage1Matches, 1)
	assert.Equal(t, "t1", result.Stage1Matches[0].Transaction.TransactionID)
	assert.Equal(t, "111-1", result.Stage1Matches[0].Order.OrderID)
	assert.Equal(t, []string{"Book"}, result.Stage1Matches[0].Order.Items)

	require.Len(t, result.Stage2Matches, 1)
	assert.Equal(t, "t2", result.Stage2Matches[0].Transaction.TransactionID)

	require.Len(t, result.UnmatchedOrders, 1)
	assert.Equal(t, "111-3", result.UnmatchedOrders[0].OrderID)
	assert.Empty(t, result.UnmatchedTransactions)
}

func TestMatch_UncategorizedOnlyKeepsClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTransaction(t, amazonTxn("t1", "2026-10-03", -25.99, "cat-books"))
	env.seedTransaction(t, amazonTxn("t2", "2026-10-02", -12.50, ""))
	env.seedOrder(t, "111-1", "2026-10-01", 25.99)
	env.seedOrder(t, "111-2", "2026-10-01", 12.50)

	report, err := env.svc.Match(ctx, MatchOptions{UncategorizedOnly: true})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Transactions)
	require.Len(t, report.Result.Stage1Matches, 1)
	assert.Equal(t, "t2", report.Result.Stage1Matches[0].Transaction.TransactionID)
	assert.Empty(t, report.Result.UnmatchedOrders, "order 111-1 is claimed by the categorized transaction")
}

func TestMatch_NoTransactionsSkipsOrderFetch(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.svc.Match(context.Background(), MatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Transactions)
	assert.Equal(t, 0, report.Result.TotalMatched())
	assert.False(t, env.repo.GetOrdersRangeCalled)
}

func TestMatch_StorageErrors(t *testing.T) {
	t.Run("transactions", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.GetTransactionsErr = errors.New("locked")

		_, err := env.svc.Match(context.Background(), MatchOptions{})
		assert.ErrorContains(t, err, "failed to load transactions")
	})

	t.Run("orders", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedTransaction(t, amazonTxn("t1", "2026-10-03", -25.99, ""))
		env.repo.GetOrdersErr = errors.New("locked")

		_, err := env.svc.Match(context.Background(), MatchOptions{})
		assert.ErrorContains(t, err, "failed to load orders")
	})
}

func TestCategorize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	txn := amazonTxn("t1", "2026-10-03", -25.99, "cat-old")
	txn.CategoryName = "Old"
	txn.Approved = true
	env.seedTransaction(t, txn)

	outcome, err := env.svc.Categorize(ctx, CategorizeRequest{TransactionID: "t1", CategoryID: "cat-new", CategoryName: "New"})
	require.NoError(t, err)
	assert.Equal(t, storage.PendingCreated, outcome)

	change, err := env.repo.GetPendingChange(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-old", change.OriginalCategoryID)
	assert.True(t, change.NewApproved, "an approved transaction stays approved")

	outcome, err = env.svc.Categorize(ctx, CategorizeRequest{TransactionID: "t1", CategoryID: "cat-other", CategoryName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, storage.PendingUpdated, outcome)

	outcome, err = env.svc.Categorize(ctx, CategorizeRequest{TransactionID: "t1", CategoryID: "cat-old", CategoryName: "Old"})
	require.NoError(t, err)
	assert.Equal(t, storage.PendingDeleted, outcome)

	count, err := env.repo.PendingChangeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCategorize_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Categorize(ctx, CategorizeRequest{TransactionID: "t1"})
	assert.ErrorIs(t, err, ErrEmptyCategory)

	_, err = env.svc.Categorize(ctx, CategorizeRequest{TransactionID: "missing", CategoryID: "cat-1"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUndo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTransaction(t, amazonTxn("t1", "2026-10-03", -25.99, ""))
	_, err := env.svc.Categorize(ctx, CategorizeRequest{TransactionID: "t1", CategoryID: "cat-1"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Undo(ctx, "t1"))

	pending, err := env.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, env.svc.Undo(ctx, "t1"), storage.ErrNotFound)
}

func setupPending(t *testing.T, env *testEnv) {
	t.Helper()
	env.seedTransaction(t, amazonTxn("t1", "2026-10-03", -25.99, ""))
	_, err := env.svc.Categorize(context.Background(), CategorizeRequest{
		TransactionID: "t1", CategoryID: "cat-books", CategoryName: "Books", Approve: true,
	})
	require.NoError(t, err)
}

func TestPush_AppliesVerifiedChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupPending(t, env)

	env.budget.On("UpdateTransactionCategory", mock.Anything, "t1", "cat-books", true).
		Return(&ynab.Transaction{ID: "t1", CategoryID: "cat-books", Approved: true}, nil)

	result, err := env.svc.Push(ctx, false)
	require.NoError(t, err)

	assert.True(t, result.Success(), result.Errors)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []string{"t1"}, result.PushedIDs)
	assert.Equal(t, []string{"t1"}, env.repo.ApplyCalls)

	txn, err := env.repo.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-books", txn.CategoryID)
	assert.Equal(t, storage.StatusSynced, txn.SyncStatus)

	run, err := env.repo.GetSyncRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, SourcePush, run.Source)
}

func TestPush_FailuresStayPending(t *testing.T) {
	tests := []struct {
		name     string
		response *ynab.Transaction
		err      error
	}{
		{name: "api error", err: errors.New("ynab: server error")},
		{name: "unverified response", response: &ynab.Transaction{ID: "t1", CategoryID: "", Approved: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			setupPending(t, env)

			env.budget.On("UpdateTransactionCategory", mock.Anything, "t1", "cat-books", true).
				Return(tt.response, tt.err)

			result, err := env.svc.Push(ctx, false)
			require.NoError(t, err)

			assert.False(t, result.Success())
			assert.Equal(t, 1, result.Failed)
			assert.Len(t, result.Errors, 1)
			assert.Empty(t, env.repo.ApplyCalls)

			count, err := env.repo.PendingChangeCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestPush_DryRun(t *testing.T) {
	env := newTestEnv(t)
	setupPending(t, env)

	result, err := env.svc.Push(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Pushed)
	require.Len(t, result.Pending, 1)
	assert.Equal(t, "t1", result.Pending[0].TransactionID)
	assert.Empty(t, result.RunID)
	env.budget.AssertNotCalled(t, "UpdateTransactionCategory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedTransaction(t, amazonTxn("t1", "2026-10-03", -25.99, ""))
	env.seedTransaction(t, amazonTxn("t2", "2026-10-04", -5.00, "cat-1"))
	env.seedOrder(t, "111-1", "2026-10-01", 25.99, "Book", "Pen")
	require.NoError(t, env.repo.UpdateSyncState(ctx, SourceAmazon, day("2026-10-10"), 1))

	status, err := env.svc.Status(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, status.YNAB.Count)
	assert.Equal(t, "2026-10-03", status.YNAB.EarliestDate)
	assert.Equal(t, "2026-10-04", status.YNAB.LatestDate)
	assert.True(t, status.YNAB.LastSyncDate.IsZero())
	assert.Equal(t, 1, status.Amazon.Count)
	assert.Equal(t, day("2026-10-10"), status.Amazon.LastSyncDate)
	assert.Equal(t, 1, status.Uncategorized)
	assert.Equal(t, 2, status.OrderItems)
}
