// Package liked keeps the user's liked venues across restarts.
package liked

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"

	"github.com/jask/foodswipe/internal/venue"
)

// SlotKey names the persisted slot holding the liked list.
const SlotKey = "likedRestaurants"

// Slot is a named blob store. Load returns nil data and no error when the
// slot has never been written.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, data []byte) error
}

// Store is an ordered set of venues, unique by id, written through to a Slot
// on every change. Persistence is best effort: failures are logged only.
// Writes reach the slot in the order the changes were made.
type Store struct {
	// writeMu is held from a change until its slot write returns.
	writeMu sync.Mutex

	mu     sync.RWMutex
	slot   Slot
	logger *log.Logger
	items  []venue.Venue
}

// New returns an empty store backed by slot. Call Load to read what was
// persisted.
func New(slot Slot, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{slot: slot, logger: logger}
}

// Load replaces the in-memory list with the persisted one. Missing or
// malformed data leaves the store empty.
func (s *Store) Load(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil

	data, err := s.slot.Load(ctx, SlotKey)
	if err != nil {
		s.logger.Printf("liked: load slot: %v", err)
		return 0
	}
	if len(data) == 0 {
		return 0
	}
	var decoded []venue.Venue
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.logger.Printf("liked: ignoring malformed slot data: %v", err)
		return 0
	}
	seen := make(map[string]struct{}, len(decoded))
	for _, v := range decoded {
		if v.ID == "" {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		s.items = append(s.items, v)
	}
	return len(s.items)
}

// Add appends v unless a venue with the same id is already present. The list
// is persisted either way.
func (s *Store) Add(ctx context.Context, v venue.Venue) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	added := s.indexLocked(v.ID) < 0
	if added {
		s.items = append(s.items, v)
	}
	snapshot := s.encodeLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return added
}

// Remove drops the venue with id if present and persists the result.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
	}
	snapshot := s.encodeLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return i >= 0
}

// Contains reports whether a venue with id was liked.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

// Len returns how many venues are liked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// List returns a copy of the liked venues in insertion order.
func (s *Store) List() []venue.Venue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]venue.Venue, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, v := range s.items {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) encodeLocked() []byte {
	items := s.items
	if items == nil {
		items = []venue.Venue{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Printf("liked: encode: %v", err)
		return nil
	}
	return data
}

func (s *Store) persist(ctx context.Context, data []byte) {
	if data == nil {
		return
	}
	if err := s.slot.Store(ctx, SlotKey, data); err != nil {
		s.logger.Printf("liked: save slot: %v", err)
	}
}
