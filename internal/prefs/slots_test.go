package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/foodswipe/internal/liked"
	"github.com/jask/foodswipe/internal/venue"
)

func TestFileSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	slot := NewFileSlot(dir)

	data, err := slot.Load(ctx, "likedRestaurants")
	require.NoError(t, err)
	require.Nil(t, data)

	require.NoError(t, slot.Store(ctx, "likedRestaurants", []byte(`[]`)))
	data, err = slot.Load(ctx, "likedRestaurants")
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	_, err = os.Stat(filepath.Join(dir, "likedRestaurants.json.tmp"))
	require.True(t, os.IsNotExist(err))
}

func TestFileSlotRejectsPathKeys(t *testing.T) {
	slot := NewFileSlot(t.TempDir())
	require.Error(t, slot.Store(context.Background(), "../escape", []byte("x")))
	_, err := slot.Load(context.Background(), "")
	require.Error(t, err)
}

func TestFileSlotBacksLikedStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := liked.New(NewFileSlot(dir), nil)
	store.Load(ctx)
	require.True(t, store.Add(ctx, venue.Venue{ID: "a", Name: "Alpha"}))
	require.True(t, store.Add(ctx, venue.Venue{ID: "b", Name: "Beta"}))
	require.True(t, store.Remove(ctx, "a"))

	reloaded := liked.New(NewFileSlot(dir), nil)
	require.Equal(t, 1, reloaded.Load(ctx))
	require.Equal(t, "b", reloaded.List()[0].ID)
}

func TestFileSlotMalformedLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, liked.SlotKey+".json"), []byte("{nope"), 0o600))

	store := liked.New(NewFileSlot(dir), nil)
	require.Equal(t, 0, store.Load(ctx))
	require.Empty(t, store.List())
}
