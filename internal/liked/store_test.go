package liked

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/foodswipe/internal/venue"
)

type failingSlot struct {
	loadErr, storeErr error
	stores            int
}

func (f *failingSlot) Load(context.Context, string) ([]byte, error) { return nil, f.loadErr }
func (f *failingSlot) Store(context.Context, string, []byte) error {
	f.stores++
	return f.storeErr
}

// slowSlot holds its first Store until released.
type slowSlot struct {
	*MemorySlot
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (s *slowSlot) Store(ctx context.Context, key string, data []byte) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.gate
	}
	return s.MemorySlot.Store(ctx, key, data)
}

func TestStoreWritesLandInOrder(t *testing.T) {
	ctx := context.Background()
	slot := &slowSlot{MemorySlot: NewMemorySlot(), entered: make(chan struct{}), gate: make(chan struct{})}
	s := New(slot, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Add(ctx, venue.Venue{ID: "A"})
	}()
	<-slot.entered
	go func() {
		defer wg.Done()
		s.Add(ctx, venue.Venue{ID: "B"})
	}()
	close(slot.gate)
	wg.Wait()

	require.Equal(t, 2, s.Len())
	reloaded := New(slot.MemorySlot, nil)
	require.Equal(t, 2, reloaded.Load(ctx))
	require.Equal(t, []string{"A", "B"}, []string{reloaded.List()[0].ID, reloaded.List()[1].ID})
}

func TestStoreAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	s := New(slot, nil)

	require.True(t, s.Add(ctx, venue.Venue{ID: "A", Name: "first"}))
	require.False(t, s.Add(ctx, venue.Venue{ID: "A", Name: "second"}))
	require.Equal(t, 1, s.Len())
	require.Equal(t, "first", s.List()[0].Name)

	reloaded := New(slot, nil)
	require.Equal(t, 1, reloaded.Load(ctx))
	require.True(t, reloaded.Contains("A"))
}

func TestStoreRemove(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	s := New(slot, nil)
	for _, id := range []string{"A", "B", "C"} {
		s.Add(ctx, venue.Venue{ID: id})
	}

	require.True(t, s.Remove(ctx, "B"))
	require.False(t, s.Remove(ctx, "missing"))

	ids := func(vs []venue.Venue) []string {
		var out []string
		for _, v := range vs {
			out = append(out, v.ID)
		}
		return out
	}
	require.Equal(t, []string{"A", "C"}, ids(s.List()))

	reloaded := New(slot, nil)
	reloaded.Load(ctx)
	require.Equal(t, []string{"A", "C"}, ids(reloaded.List()))
}

func TestStoreLoadTolerance(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		s := New(NewMemorySlot(), nil)
		require.Zero(t, s.Load(ctx))
	})

	t.Run("malformed", func(t *testing.T) {
		slot := NewMemorySlot()
		require.NoError(t, slot.Store(ctx, SlotKey, []byte("{not json")))
		var buf bytes.Buffer
		s := New(slot, log.New(&buf, "", 0))
		require.Zero(t, s.Load(ctx))
		require.Contains(t, buf.String(), "malformed")
	})

	t.Run("duplicates and blank ids dropped", func(t *testing.T) {
		slot := NewMemorySlot()
		require.NoError(t, slot.Store(ctx, SlotKey, []byte(`[{"id":"A"},{"id":""},{"id":"A"},{"id":"B"}]`)))
		s := New(slot, nil)
		require.Equal(t, 2, s.Load(ctx))
	})

	t.Run("slot error", func(t *testing.T) {
		s := New(&failingSlot{loadErr: errors.New("disk gone")}, nil)
		require.Zero(t, s.Load(ctx))
	})
}

func TestStoreSwallowsWriteFailures(t *testing.T) {
	ctx := context.Background()
	slot := &failingSlot{storeErr: errors.New("read-only")}
	var buf bytes.Buffer
	s := New(slot, log.New(&buf, "", 0))

	require.True(t, s.Add(ctx, venue.Venue{ID: "A"}))
	require.False(t, s.Add(ctx, venue.Venue{ID: "A"}))
	require.True(t, s.Remove(ctx, "A"))
	require.Equal(t, 3, slot.stores, "every mutation attempts a save")
	require.Contains(t, buf.String(), "read-only")
	require.Zero(t, s.Len())
}
