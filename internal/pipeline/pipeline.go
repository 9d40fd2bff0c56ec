// Package pipeline turns paged search results into a queue of candidates
// the user decides on one at a time.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jask/foodswipe/internal/search"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

// DefaultPageSize is the page size used when New gets none or too large a one.
const DefaultPageSize = search.MaxLimit

// LikedStore receives venues the user liked.
type LikedStore interface {
	Contains(id string) bool
	Add(ctx context.Context, v venue.Venue) bool
}

// session is the complete mutable state of one browsing session.
type session struct {
	id           string
	settings     settings.Settings
	reference    *venue.Coordinate
	allFetched   []venue.Venue
	candidates   []venue.Venue
	currentIndex int
	nextOffset   int
	seen         map[string]struct{}
}

// Pipeline owns a session. Every mutation goes through its methods; at most
// one fetch runs at a time.
type Pipeline struct {
	gateway  search.Gateway
	liked    LikedStore
	pageSize int

	fetching atomic.Bool

	mu sync.Mutex
	st session
}

// New returns an empty pipeline that fetches pageSize venues per page.
func New(gateway search.Gateway, liked LikedStore, pageSize int) *Pipeline {
	if pageSize <= 0 || pageSize > search.MaxLimit {
		pageSize = DefaultPageSize
	}
	return &Pipeline{
		gateway:  gateway,
		liked:    liked,
		pageSize: pageSize,
		st: session{
			settings: settings.Default(),
			seen:     map[string]struct{}{},
		},
	}
}

// FetchResult reports what a fetch did.
type FetchResult struct {
	// Busy is set when another fetch was outstanding and this call did nothing.
	Busy bool
	// NoReference is set when LoadMore ran before any search established a location.
	NoReference bool
	// Exhausted is set when the upstream returned an empty page.
	Exhausted bool
	Fetched   int
	SessionID string
}

func (p *Pipeline) query(s settings.Settings, ref venue.Coordinate, offset int) search.Query {
	return search.Query{
		Center:        ref,
		RadiusMeters:  s.RadiusMeters,
		CategoryToken: s.Category.Token(),
		Limit:         p.pageSize,
		Offset:        offset,
		SortToken:     s.SortMode.Token(),
		OpenOnly:      s.OpenOnly,
	}
}

// StartSearch fetches the first page for s around ref and, on success,
// replaces the session's pool. The seen set survives unless resetSeen.
// On failure the previous session is left as it was.
func (p *Pipeline) StartSearch(ctx context.Context, s settings.Settings, ref venue.Coordinate, resetSeen bool) (FetchResult, error) {
	if !p.fetching.CompareAndSwap(false, true) {
		return FetchResult{Busy: true}, nil
	}
	defer p.fetching.Store(false)

	s = s.Normalize()
	sources, err := p.gateway.Search(ctx, p.query(s, ref, 0))
	if err != nil {
		return FetchResult{}, err
	}
	fetched := normalizeAll(sources, ref)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.st.id = uuid.NewString()
	p.st.settings = s
	p.st.reference = &ref
	p.st.allFetched = fetched
	p.st.nextOffset = 0
	if resetSeen {
		p.st.seen = map[string]struct{}{}
	}
	p.applyLocked(true)
	return FetchResult{Fetched: len(sources), SessionID: p.st.id}, nil
}

// LoadMore fetches the page after the last one and appends it to the pool
// without moving the cursor. An empty page leaves everything unchanged.
func (p *Pipeline) LoadMore(ctx context.Context) (FetchResult, error) {
	if !p.fetching.CompareAndSwap(false, true) {
		return FetchResult{Busy: true}, nil
	}
	defer p.fetching.Store(false)

	p.mu.Lock()
	if p.st.reference == nil {
		p.mu.Unlock()
		return FetchResult{NoReference: true}, nil
	}
	ref := *p.st.reference
	s := p.st.settings
	offset := p.st.nextOffset + p.pageSize
	id := p.st.id
	p.mu.Unlock()

	sources, err := p.gateway.Search(ctx, p.query(s, ref, offset))
	if err != nil {
		return FetchResult{}, err
	}
	if len(sources) == 0 {
		return FetchResult{Exhausted: true, SessionID: id}, nil
	}
	fetched := normalizeAll(sources, ref)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.st.allFetched = merge(p.st.allFetched, fetched)
	p.st.nextOffset = offset
	p.applyLocked(false)
	return FetchResult{Fetched: len(sources), SessionID: id}, nil
}

// ApplyFiltersAndSort recomputes the candidates from the fetched pool. When
// resetCursor is false the cursor stays put and may end up past the end.
func (p *Pipeline) ApplyFiltersAndSort(resetCursor bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(resetCursor)
}

// UpdateLocalSettings changes the ranking-only settings (sort mode and
// minimum rating) and re-ranks from the start without a network call.
func (p *Pipeline) UpdateLocalSettings(s settings.Settings) {
	s = s.Normalize()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.st.settings.SortMode = s.SortMode
	p.st.settings.MinimumRating = s.MinimumRating
	p.applyLocked(true)
}

func (p *Pipeline) applyLocked(resetCursor bool) {
	p.st.candidates = FilterAndRank(p.st.allFetched, p.st.seen, p.st.settings)
	if resetCursor {
		p.st.currentIndex = 0
	}
}

// CurrentCandidate returns the venue under the cursor, if any.
func (p *Pipeline) CurrentCandidate() (venue.Venue, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *Pipeline) currentLocked() (venue.Venue, bool) {
	if p.st.currentIndex < 0 || p.st.currentIndex >= len(p.st.candidates) {
		return venue.Venue{}, false
	}
	return p.st.candidates[p.st.currentIndex], true
}

// Fetching reports whether a fetch is outstanding.
func (p *Pipeline) Fetching() bool {
	return p.fetching.Load()
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	SessionID    string
	Settings     settings.Settings
	Reference    *venue.Coordinate
	Candidates   []venue.Venue
	CurrentIndex int
	Fetched      int
	NextOffset   int
	SeenCount    int
	Loading      bool
}

// Current returns the candidate under the cursor.
func (s Snapshot) Current() (venue.Venue, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Candidates) {
		return venue.Venue{}, false
	}
	return s.Candidates[s.CurrentIndex], true
}

// Exhausted reports whether the cursor has run past the last candidate.
func (s Snapshot) Exhausted() bool {
	return s.CurrentIndex >= len(s.Candidates)
}

// Remaining counts candidates not yet decided on.
func (s Snapshot) Remaining() int {
	if n := len(s.Candidates) - s.CurrentIndex; n > 0 {
		return n
	}
	return 0
}

// Snapshot copies the session under the lock.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{
		SessionID:    p.st.id,
		Settings:     p.st.settings,
		Candidates:   append([]venue.Venue(nil), p.st.candidates...),
		CurrentIndex: p.st.currentIndex,
		Fetched:      len(p.st.allFetched),
		NextOffset:   p.st.nextOffset,
		SeenCount:    len(p.st.seen),
		Loading:      p.fetching.Load(),
	}
	if p.st.reference != nil {
		ref := *p.st.reference
		snap.Reference = &ref
	}
	return snap
}

// HasSeen reports whether id was decided on in this session.
func (p *Pipeline) HasSeen(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.st.seen[id]
	return ok
}

// normalizeAll converts a page, dropping entries without an id. Repeated ids
// within the page keep the first position and the last record.
func normalizeAll(sources []venue.Source, ref venue.Coordinate) []venue.Venue {
	return merge(nil, convert(sources, ref))
}

func convert(sources []venue.Source, ref venue.Coordinate) []venue.Venue {
	out := make([]venue.Venue, 0, len(sources))
	for _, src := range sources {
		v, err := venue.Normalize(src, &ref)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// merge appends incoming to pool. A venue already in the pool is replaced in
// place by the newer record.
func merge(pool, incoming []venue.Venue) []venue.Venue {
	pos := make(map[string]int, len(pool)+len(incoming))
	out := make([]venue.Venue, 0, len(pool)+len(incoming))
	for _, v := range pool {
		pos[v.ID] = len(out)
		out = append(out, v)
	}
	for _, v := range incoming {
		if i, ok := pos[v.ID]; ok {
			out[i] = v
			continue
		}
		pos[v.ID] = len(out)
		out = append(out, v)
	}
	return out
}
