package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTransaction(t *testing.T, store *Storage, id string) {
	t.Helper()
	_, _, err := store.UpsertTransaction(context.Background(), &Transaction{
		ID: id, Date: date("2024-03-02"), Amount: -19.99, PayeeName: "Amazon",
		CategoryID: "cat-orig", CategoryName: "Uncategorized Shopping",
	})
	require.NoError(t, err)
}

func TestStorage_SetPendingChange_Lifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedTransaction(t, store, "t1")

	outcome, err := store.SetPendingChange(ctx, &PendingChange{
		TransactionID:        "t1",
		NewCategoryID:        "cat-books",
		NewCategoryName:      "Books",
		OriginalCategoryID:   "cat-orig",
		OriginalCategoryName: "Uncategorized Shopping",
		NewApproved:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, PendingCreated, outcome)

	txn, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPush, txn.SyncStatus)

	// Second edit replaces the new values, original values stay from the first edit
	outcome, err = store.SetPendingChange(ctx, &PendingChange{
		TransactionID:      "t1",
		NewCategoryID:      "cat-gifts",
		NewCategoryName:    "Gifts",
		OriginalCategoryID: "cat-books",
		NewApproved:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, PendingUpdated, outcome)

	change, err := store.GetPendingChange(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-gifts", change.NewCategoryID)
	assert.Equal(t, "cat-orig", change.OriginalCategoryID)
	assert.Equal(t, "Uncategorized Shopping", change.OriginalCategoryName)
	assert.Equal(t, "Amazon", change.PayeeName)
	assert.Equal(t, -19.99, change.Amount)

	// Setting it back to the original removes the change
	outcome, err = store.SetPendingChange(ctx, &PendingChange{
		TransactionID: "t1",
		NewCategoryID: "cat-orig",
		NewApproved:   false,
	})
	require.NoError(t, err)
	assert.Equal(t, PendingDeleted, outcome)

	_, err = store.GetPendingChange(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)

	txn, err = store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusSynced, txn.SyncStatus)
}

func TestStorage_SetPendingChange_NoOpIsNotRecorded(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedTransaction(t, store, "t1")

	outcome, err := store.SetPendingChange(ctx, &PendingChange{
		TransactionID:      "t1",
		NewCategoryID:      "cat-orig",
		OriginalCategoryID: "cat-orig",
	})
	require.NoError(t, err)
	assert.Equal(t, PendingDeleted, outcome)

	count, err := store.PendingChangeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStorage_SetPendingChange_UnknownTransaction(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.SetPendingChange(context.Background(), &PendingChange{TransactionID: "ghost", NewCategoryID: "cat-1"})
	assert.Error(t, err)
}

func TestStorage_DeletePendingChange(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedTransaction(t, store, "t1")

	_, err := store.SetPendingChange(ctx, &PendingChange{TransactionID: "t1", NewCategoryID: "cat-2", OriginalCategoryID: "cat-orig"})
	require.NoError(t, err)

	deleted, err := store.DeletePendingChange(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeletePendingChange(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, deleted)

	txn, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-orig", txn.CategoryID, "undo leaves the stored category alone")
	assert.Equal(t, StatusSynced, txn.SyncStatus)
}

func TestStorage_ApplyPendingChange(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	seedTransaction(t, store, "t1")
	seedTransaction(t, store, "t2")

	_, err := store.SetPendingChange(ctx, &PendingChange{
		TransactionID: "t1", NewCategoryID: "cat-books", NewCategoryName: "Books",
		OriginalCategoryID: "cat-orig", NewApproved: true,
	})
	require.NoError(t, err)

	changes, err := store.ListPendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	applied, err := store.ApplyPendingChange(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.ApplyPendingChange(ctx, "t2")
	require.NoError(t, err)
	assert.False(t, applied, "nothing pending for t2")

	txn, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cat-books", txn.CategoryID)
	assert.Equal(t, "Books", txn.CategoryName)
	assert.True(t, txn.Approved)
	assert.Equal(t, StatusSynced, txn.SyncStatus)

	count, err := store.PendingChangeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
