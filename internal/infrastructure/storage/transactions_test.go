package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_UpsertTransaction_InsertUpdateUnchanged(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	txn := &Transaction{
		ID:           "t1",
		BudgetID:     "budget-1",
		Date:         date("2024-03-02"),
		Amount:       -42.17,
		PayeeName:    "Amazon.com",
		CategoryID:   "cat-home",
		CategoryName: "Home",
		Approved:     true,
	}

	inserted, changed, err := store.UpsertTransaction(ctx, txn)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.True(t, changed)

	inserted, changed, err = store.UpsertTransaction(ctx, txn)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.False(t, changed)

	txn.Memo = "returned one item"
	txn.BudgetID = ""
	inserted, changed, err = store.UpsertTransaction(ctx, txn)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.True(t, changed)

	got, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "returned one item", got.Memo)
	assert.Equal(t, "budget-1", got.BudgetID, "empty budget ID keeps the stored one")
	assert.Equal(t, -42.17, got.Amount)
	assert.Equal(t, StatusSynced, got.SyncStatus)
	assert.True(t, got.Approved)
}

func TestStorage_UpsertTransaction_ClearedCategoryIsConflict(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, _, err := store.UpsertTransaction(ctx, &Transaction{
		ID: "t1", Date: date("2024-03-02"), Amount: -10, CategoryID: "cat-1", CategoryName: "Books",
	})
	require.NoError(t, err)

	// YNAB comes back without a category
	_, changed, err := store.UpsertTransaction(ctx, &Transaction{ID: "t1", Date: date("2024-03-02"), Amount: -10})
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", got.CategoryID)
	assert.Equal(t, "Books", got.CategoryName)
	assert.Equal(t, StatusConflict, got.SyncStatus)

	conflicts, err := store.GetConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "t1", conflicts[0].ID)
}

func TestStorage_UpsertTransaction_KeepsPendingCategory(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, _, err := store.UpsertTransaction(ctx, &Transaction{ID: "t1", Date: date("2024-03-02"), Amount: -10})
	require.NoError(t, err)
	_, err = store.SetPendingChange(ctx, &PendingChange{
		TransactionID: "t1", NewCategoryID: "cat-2", NewCategoryName: "Gifts", NewApproved: true,
	})
	require.NoError(t, err)

	// A pull that still shows the old (empty) category must not undo the local edit
	_, _, err = store.UpsertTransaction(ctx, &Transaction{ID: "t1", Date: date("2024-03-02"), Amount: -10, PayeeName: "Amazon"})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-2", got.CategoryID)
	assert.Equal(t, "Gifts", got.CategoryName)
	assert.Equal(t, "Amazon", got.PayeeName)
	assert.Equal(t, StatusPendingPush, got.SyncStatus)
}

func TestStorage_GetTransactions_Filter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, txn := range []*Transaction{
		{ID: "a", Date: date("2024-03-01"), Amount: -5, PayeeName: "Amazon.com"},
		{ID: "b", Date: date("2024-03-05"), Amount: -6, PayeeName: "AMAZON MKTPL", CategoryID: "cat-1"},
		{ID: "c", Date: date("2024-03-09"), Amount: -7, PayeeName: "Grocer"},
		{ID: "d", Date: date("2024-02-20"), Amount: -8, PayeeName: "amazon prime"},
	} {
		_, _, err := store.UpsertTransaction(ctx, txn)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{"all, newest first", TransactionFilter{}, []string{"c", "b", "a", "d"}},
		{"payee is case-insensitive", TransactionFilter{PayeeContains: "amazon"}, []string{"b", "a", "d"}},
		{"since is inclusive", TransactionFilter{PayeeContains: "amazon", Since: date("2024-03-01")}, []string{"b", "a"}},
		{"uncategorized only", TransactionFilter{UncategorizedOnly: true}, []string{"c", "a", "d"}},
		{"limit", TransactionFilter{Limit: 2}, []string{"c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.GetTransactions(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, len(txns))
			for i, txn := range txns {
				ids[i] = txn.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	count, err := store.GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestStorage_GetTransaction_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
