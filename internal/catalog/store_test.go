package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID(nil))
	assert.Equal(t, 1, NextID([]Item{}))
	assert.Equal(t, 4, NextID([]Item{{ID: 1}, {ID: 3}, {ID: 2}}))

	// ids stay monotonic after a removal: gaps are never reused downward
	assert.Equal(t, 8, NextID([]Item{{ID: 7}, {ID: 2}}))
}

func TestPriceAmount(t *testing.T) {
	for raw, want := range map[string]float64{
		"150.00":  150,
		"150,50":  150.5,
		" 99.90 ": 99.9,
	} {
		got, err := Item{Price: raw}.PriceAmount()
		require.NoError(t, err, raw)
		assert.InDelta(t, want, got, 0.001, raw)
	}

	_, err := Item{Price: "caro"}.PriceAmount()
	assert.Error(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "contas.json"))

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "missing file reads as empty catalog")

	seed := []Item{
		{ID: 1, Elo: "Diamante 2", Skins: "Reaver Vandal", Price: "150.00", AddedAt: Now()},
		{ID: 2, Elo: "Imortal 1", Skins: "Elderflame", Price: "300,00",
			Email: "conta@ex.com", Password: "s3gredo", Obs: "full acesso",
			Image: &Image{Mimetype: "image/jpeg", Data: "aGVsbG8="}, AddedAt: Now()},
	}
	require.NoError(t, store.Save(ctx, seed))

	loaded, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed, loaded)

	got, err := store.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Imortal 1", got.Elo)
	require.NotNil(t, got.Image)
	assert.Equal(t, "image/jpeg", got.Image.Mimetype)

	_, err = store.FindByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSaveReplacesDocument(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "contas.json"))

	require.NoError(t, store.Save(ctx, []Item{{ID: 1, Elo: "Ouro 3"}, {ID: 2, Elo: "Platina 1"}}))
	require.NoError(t, store.Save(ctx, []Item{{ID: 2, Elo: "Platina 1"}}))

	loaded, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2, loaded[0].ID)
}
