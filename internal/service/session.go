// Package service exposes a browsing session to the user-facing surfaces.
package service

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/jask/foodswipe/internal/liked"
	"github.com/jask/foodswipe/internal/location"
	"github.com/jask/foodswipe/internal/pipeline"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

// Snapshot is what a surface renders.
type Snapshot struct {
	SessionID string
	Current   *venue.Venue
	// Position is the zero-based cursor; it can equal the candidate count.
	Position  int
	Total     int
	Remaining int
	Exhausted bool
	IsLoading bool
	LastError *Failure
	Liked     []venue.Venue
	Settings  settings.Settings
	Reference *venue.Coordinate
}

// SessionService wraps a pipeline with the liked store, a location source,
// and the last error, and tells subscribers when any of that changes.
type SessionService struct {
	Pipeline *pipeline.Pipeline
	Liked    *liked.Store
	Location location.Source
	Logger   *log.Logger
	// OnSettingsChanged, if set, is called with accepted settings so they can
	// be remembered between runs.
	OnSettingsChanged func(settings.Settings)

	inFlight atomic.Bool

	mu       sync.Mutex
	settings settings.Settings
	lastErr  *Failure
	subs     map[int]chan struct{}
	nextSub  int
}

func NewSessionService(p *pipeline.Pipeline, store *liked.Store, loc location.Source, initial settings.Settings, logger *log.Logger) *SessionService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SessionService{
		Pipeline: p,
		Liked:    store,
		Location: loc,
		Logger:   logger,
		settings: initial.Normalize(),
		subs:     map[int]chan struct{}{},
	}
}

// Subscribe returns a channel that receives a value after every change. Bursts
// coalesce; readers should take a fresh Snapshot on each receive. The returned
// func unsubscribes and closes the channel.
func (s *SessionService) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *SessionService) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *SessionService) Snapshot() Snapshot {
	ps := s.Pipeline.Snapshot()
	s.mu.Lock()
	snap := Snapshot{
		SessionID: ps.SessionID,
		Position:  ps.CurrentIndex,
		Total:     len(ps.Candidates),
		Remaining: ps.Remaining(),
		Exhausted: ps.Exhausted(),
		IsLoading: ps.Loading || s.inFlight.Load(),
		LastError: s.lastErr,
		Settings:  s.settings,
		Reference: ps.Reference,
	}
	s.mu.Unlock()
	if v, ok := ps.Current(); ok {
		snap.Current = &v
	}
	snap.Liked = s.Liked.List()
	return snap
}

func (s *SessionService) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *SessionService) setError(err error) *Failure {
	f := classify(err)
	s.mu.Lock()
	s.lastErr = f
	s.mu.Unlock()
	s.Logger.Printf("session: %v", err)
	return f
}

func (s *SessionService) clearError() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

// Start runs a fresh search around the current location and forgets which
// venues were already decided on.
func (s *SessionService) Start(ctx context.Context) (pipeline.FetchResult, error) {
	return s.search(ctx, s.Settings(), true)
}

func (s *SessionService) search(ctx context.Context, cfg settings.Settings, resetSeen bool) (pipeline.FetchResult, error) {
	if !s.begin() {
		return pipeline.FetchResult{Busy: true}, nil
	}
	ref, err := s.Location.CurrentLocation(ctx)
	if err != nil {
		s.inFlight.Store(false)
		f := s.setError(err)
		s.notify()
		return pipeline.FetchResult{}, f
	}

	res, err := s.Pipeline.StartSearch(ctx, cfg, ref, resetSeen)
	if err != nil {
		s.inFlight.Store(false)
		f := s.setError(err)
		s.notify()
		return res, f
	}
	if !res.Busy {
		// sort and rating may have moved while the page was in flight
		s.Pipeline.UpdateLocalSettings(s.Settings())
		s.clearError()
	}
	s.inFlight.Store(false)
	s.notify()
	return res, nil
}

// begin marks a fetch as outstanding and tells subscribers. It reports false
// when one already is.
func (s *SessionService) begin() bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	s.notify()
	return true
}

// LoadMore appends the next page to the current session.
func (s *SessionService) LoadMore(ctx context.Context) (pipeline.FetchResult, error) {
	if !s.begin() {
		return pipeline.FetchResult{Busy: true}, nil
	}
	res, err := s.Pipeline.LoadMore(ctx)
	s.inFlight.Store(false)
	if err != nil {
		f := s.setError(err)
		s.notify()
		return res, f
	}
	if !res.Busy && !res.NoReference {
		s.clearError()
	}
	s.notify()
	return res, nil
}

// Decide applies a skip or like to the current candidate.
func (s *SessionService) Decide(ctx context.Context, d pipeline.Direction) (pipeline.Decision, error) {
	res, err := s.Pipeline.Decide(ctx, d)
	if err != nil {
		return res, err
	}
	s.notify()
	return res, nil
}

// RemoveLiked drops a venue from the liked list.
func (s *SessionService) RemoveLiked(ctx context.Context, id string) bool {
	removed := s.Liked.Remove(ctx, id)
	if removed {
		s.notify()
	}
	return removed
}

// UpdateSettings applies next. A new category starts a fresh search; radius
// and open-only changes search again but keep the seen set; sort and rating
// only re-rank what is already loaded. Fields that shape the query take
// effect once their search succeeds. If another search is running those
// fields are left alone and ErrBusy is returned.
func (s *SessionService) UpdateSettings(ctx context.Context, next settings.Settings) (settings.Effect, error) {
	next = next.Normalize()
	s.mu.Lock()
	prev := s.settings
	s.mu.Unlock()

	effect := settings.Classify(prev, next)
	if effect == settings.NoChange {
		return effect, nil
	}

	if prev.WithLocal(next) != prev {
		s.commit(func(cur settings.Settings) settings.Settings { return cur.WithLocal(next) })
		s.Pipeline.UpdateLocalSettings(s.Settings())
		s.notify()
		if effect == settings.Refilter {
			return effect, nil
		}
	}

	res, err := s.search(ctx, s.Settings().WithQuery(next), effect == settings.Restart)
	if err != nil {
		return effect, err
	}
	if res.Busy {
		return effect, ErrBusy
	}
	s.commit(func(cur settings.Settings) settings.Settings { return cur.WithQuery(next) })
	s.notify()
	return effect, nil
}

// commit updates the accepted settings and hands them to OnSettingsChanged.
func (s *SessionService) commit(update func(settings.Settings) settings.Settings) {
	s.mu.Lock()
	s.settings = update(s.settings)
	cur := s.settings
	s.mu.Unlock()
	if s.OnSettingsChanged != nil {
		s.OnSettingsChanged(cur)
	}
}
