package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDMonotonic(t *testing.T) {
	seen := make(map[int64]bool)
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := newID()
		require.False(t, seen[id], "duplicate id %d", id)
		require.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}

func TestFileStoreAddPending(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pagamentos.json"))

	p, err := store.AddPending(ctx, 3, "5592000000001", "mp-123", "00020126pix")
	require.NoError(t, err)
	assert.Equal(t, 3, p.AccountID)
	assert.Equal(t, StatusPending, p.Status)
	assert.NotZero(t, p.ID)
	assert.NotEmpty(t, p.CreatedAt)
	assert.Empty(t, p.UpdatedAt)

	loaded, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, p, loaded[0])
}

func TestFileStoreUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pagamentos.json"))

	_, err := store.AddPending(ctx, 1, "5592000000001", "mp-123", "pix-a")
	require.NoError(t, err)
	// duplicate gateway id: only the first record is addressable
	_, err = store.AddPending(ctx, 2, "5592000000002", "mp-123", "pix-b")
	require.NoError(t, err)

	updated, err := store.UpdateStatus(ctx, "mp-123", StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AccountID)
	assert.Equal(t, StatusApproved, updated.Status)
	assert.NotEmpty(t, updated.UpdatedAt)

	loaded, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, loaded[0].Status)
	assert.Equal(t, StatusPending, loaded[1].Status)

	_, err = store.UpdateStatus(ctx, "mp-999", StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorePendingByBuyer(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pagamentos.json"))

	_, err := store.AddPending(ctx, 1, "buyer-a", "mp-1", "pix-1")
	require.NoError(t, err)
	_, err = store.AddPending(ctx, 2, "buyer-b", "mp-2", "pix-2")
	require.NoError(t, err)
	p3, err := store.AddPending(ctx, 3, "buyer-a", "mp-3", "pix-3")
	require.NoError(t, err)

	_, err = store.UpdateStatus(ctx, "mp-1", StatusFailed)
	require.NoError(t, err)

	pending, err := store.PendingByBuyer(ctx, "buyer-a")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p3.ID, pending[0].ID)

	none, err := store.PendingByBuyer(ctx, "buyer-c")
	require.NoError(t, err)
	assert.Empty(t, none)
}
