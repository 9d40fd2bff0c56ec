package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/foodswipe/internal/database"
	"github.com/jask/foodswipe/internal/database/repository"
	"github.com/jask/foodswipe/internal/liked"
	"github.com/jask/foodswipe/internal/venue"
)

func TestMaintenanceReset(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	slots := repository.NewSlotRepo(db)
	store := liked.New(slots, nil)
	store.Load(ctx)
	store.Add(ctx, venue.Venue{ID: "a", Name: "Alpha"})

	n, err := (&MaintenanceService{DB: db}).Reset(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	reloaded := liked.New(slots, nil)
	require.Equal(t, 0, reloaded.Load(ctx))

	_, err = (&MaintenanceService{}).Reset(ctx)
	require.Error(t, err)
}
