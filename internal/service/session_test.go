package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/foodswipe/internal/liked"
	"github.com/jask/foodswipe/internal/location"
	"github.com/jask/foodswipe/internal/pipeline"
	"github.com/jask/foodswipe/internal/search"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

var here = venue.Coordinate{Latitude: 25.0340, Longitude: 121.5645}

type stubGateway struct {
	mu      sync.Mutex
	pages   map[int][]venue.Source
	err     error
	calls   []search.Query
	gate    chan struct{}
	entered chan struct{}
}

func (g *stubGateway) Search(_ context.Context, q search.Query) ([]venue.Source, error) {
	g.mu.Lock()
	gate, entered := g.gate, g.entered
	g.mu.Unlock()
	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, q)
	if g.err != nil {
		return nil, g.err
	}
	return g.pages[q.Offset], nil
}

func (g *stubGateway) setErr(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

// hold makes searches wait until release. The returned channel receives when
// a search is waiting.
func (g *stubGateway) hold() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	g.entered = make(chan struct{}, 1)
	return g.entered
}

func (g *stubGateway) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gate)
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *stubGateway) lastQuery() search.Query {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

func venues(ids ...string) []venue.Source {
	out := make([]venue.Source, 0, len(ids))
	for _, id := range ids {
		out = append(out, venue.Source{ID: id, Name: "Venue " + id, Coordinates: here})
	}
	return out
}

func newService(t *testing.T, gw *stubGateway, loc location.Source) *SessionService {
	t.Helper()
	store := liked.New(liked.NewMemorySlot(), nil)
	store.Load(context.Background())
	p := pipeline.New(gw, store, 2)
	return NewSessionService(p, store, loc, settings.Default(), nil)
}

func TestStartPublishesFirstCandidate(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a", "b")}}
	svc := newService(t, gw, location.Fixed{Point: here})

	res, err := svc.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Fetched)

	snap := svc.Snapshot()
	require.NotEmpty(t, snap.SessionID)
	require.NotNil(t, snap.Current)
	require.Equal(t, "a", snap.Current.ID)
	require.Equal(t, 2, snap.Remaining)
	require.False(t, snap.Exhausted)
	require.False(t, snap.IsLoading)
	require.Nil(t, snap.LastError)
	require.Equal(t, here, *snap.Reference)
}

func TestStartWithoutLocation(t *testing.T) {
	gw := &stubGateway{}
	svc := newService(t, gw, location.Unavailable{Reason: "not configured"})

	_, err := svc.Start(context.Background())
	require.ErrorIs(t, err, location.ErrUnavailable)
	require.Zero(t, gw.callCount())

	snap := svc.Snapshot()
	require.NotNil(t, snap.LastError)
	require.Equal(t, KindLocationUnavailable, snap.LastError.Kind)
	require.Nil(t, snap.Current)
	require.False(t, snap.IsLoading)
}

func TestFailureKeepsCandidatesAndSuccessClearsError(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a", "b")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	ctx := context.Background()

	_, err := svc.Start(ctx)
	require.NoError(t, err)

	gw.setErr(&search.Error{Op: "stub", Kind: search.KindRejected, Status: 401})
	_, err = svc.Start(ctx)
	require.ErrorIs(t, err, search.ErrUpstreamRejected)

	snap := svc.Snapshot()
	require.Equal(t, KindRejected, snap.LastError.Kind)
	require.Contains(t, snap.LastError.Message(), "API key")
	require.Equal(t, "a", snap.Current.ID)

	gw.setErr(nil)
	_, err = svc.LoadMore(ctx)
	require.NoError(t, err)
	require.Nil(t, svc.Snapshot().LastError)
}

func TestClassify(t *testing.T) {
	cases := map[Kind]error{
		KindInvalidQuery: &search.Error{Kind: search.KindInvalidQuery},
		KindTransport:    &search.Error{Kind: search.KindTransport, Err: errors.New("dial")},
		KindDecode:       &search.Error{Kind: search.KindDecode},
		KindUnknown:      errors.New("boom"),
	}
	for want, err := range cases {
		f := classify(err)
		require.Equal(t, want, f.Kind, err.Error())
		require.NotEmpty(t, f.Message())
	}
}

func TestDecideAndRemoveLiked(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a", "b")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	ctx := context.Background()
	_, err := svc.Start(ctx)
	require.NoError(t, err)

	d, err := svc.Decide(ctx, pipeline.Like)
	require.NoError(t, err)
	require.True(t, d.NewlyLiked)
	_, err = svc.Decide(ctx, pipeline.Skip)
	require.NoError(t, err)

	snap := svc.Snapshot()
	require.True(t, snap.Exhausted)
	require.Nil(t, snap.Current)
	require.Len(t, snap.Liked, 1)

	_, err = svc.Decide(ctx, pipeline.Like)
	require.ErrorIs(t, err, pipeline.ErrNoCandidate)

	require.True(t, svc.RemoveLiked(ctx, "a"))
	require.False(t, svc.RemoveLiked(ctx, "a"))
	require.Empty(t, svc.Snapshot().Liked)
}

func TestUpdateSettingsRouting(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a", "b")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	var saved []settings.Settings
	svc.OnSettingsChanged = func(s settings.Settings) { saved = append(saved, s) }
	ctx := context.Background()

	_, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Decide(ctx, pipeline.Skip)
	require.NoError(t, err)
	require.Equal(t, 1, gw.callCount())

	next := svc.Settings()
	next.SortMode = settings.SortBestMatch
	effect, err := svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	require.Equal(t, settings.Refilter, effect)
	require.Equal(t, 1, gw.callCount())
	require.Equal(t, 0, svc.Snapshot().Position)

	next.RadiusMeters = 5000
	effect, err = svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	require.Equal(t, settings.Refetch, effect)
	require.Equal(t, 2, gw.callCount())
	require.Equal(t, 5000, gw.lastQuery().RadiusMeters)
	require.Equal(t, "best_match", gw.lastQuery().SortToken)

	// the skipped venue stays hidden after a radius refetch
	snap := svc.Snapshot()
	require.Equal(t, 1, snap.Total)
	require.Equal(t, "b", snap.Current.ID)

	effect, err = svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	require.Equal(t, settings.NoChange, effect)
	require.Len(t, saved, 2)
	require.Equal(t, next, saved[1])
}

func TestCategoryChangeStartsOver(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("low", "high")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	ctx := context.Background()

	first, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Decide(ctx, pipeline.Skip)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Snapshot().Total)

	next := svc.Settings()
	next.Category = settings.CategoryRamen
	effect, err := svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	require.Equal(t, settings.Restart, effect)
	require.Equal(t, "ramen", gw.lastQuery().CategoryToken)

	snap := svc.Snapshot()
	require.Equal(t, 2, snap.Total)
	require.Equal(t, "low", snap.Current.ID)
	require.NotEqual(t, first.SessionID, snap.SessionID)
	require.False(t, svc.Pipeline.HasSeen("low"))
}

func TestRankingChangeDuringSearchSurvives(t *testing.T) {
	low, high := 3.0, 4.5
	gw := &stubGateway{pages: map[int][]venue.Source{0: {
		{ID: "low", Name: "Low", Coordinates: here, Rating: &low},
		{ID: "high", Name: "High", Coordinates: here, Rating: &high},
	}}}
	svc := newService(t, gw, location.Fixed{Point: here})
	ctx := context.Background()
	entered := gw.hold()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Start(ctx)
		done <- err
	}()
	<-entered

	next := svc.Settings()
	next.Category = settings.CategoryRamen
	effect, err := svc.UpdateSettings(ctx, next)
	require.ErrorIs(t, err, ErrBusy)
	require.Equal(t, settings.Restart, effect)
	require.Equal(t, settings.CategoryAll, svc.Settings().Category)

	next = svc.Settings()
	next.MinimumRating = 4
	effect, err = svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	require.Equal(t, settings.Refilter, effect)

	gw.release()
	require.NoError(t, <-done)

	snap := svc.Snapshot()
	require.Equal(t, 4.0, snap.Settings.MinimumRating)
	require.Equal(t, 4.0, svc.Pipeline.Snapshot().Settings.MinimumRating)
	require.Equal(t, 1, snap.Total)
	require.Equal(t, "high", snap.Current.ID)
}

func TestFailedRefetchKeepsQuerySettings(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a", "b")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	var saved []settings.Settings
	svc.OnSettingsChanged = func(s settings.Settings) { saved = append(saved, s) }
	ctx := context.Background()

	_, err := svc.Start(ctx)
	require.NoError(t, err)

	gw.setErr(&search.Error{Op: "stub", Kind: search.KindTransport, Err: errors.New("dial")})
	next := svc.Settings()
	next.RadiusMeters = 8000
	next.SortMode = settings.SortBestMatch
	effect, err := svc.UpdateSettings(ctx, next)
	require.Equal(t, settings.Refetch, effect)
	require.ErrorIs(t, err, search.ErrTransportFailure)

	// sort applies locally; the radius waits for a search that succeeds
	cur := svc.Settings()
	require.Equal(t, settings.DefaultRadiusMeters, cur.RadiusMeters)
	require.Equal(t, settings.SortBestMatch, cur.SortMode)
	require.Equal(t, cur, svc.Snapshot().Settings)
	require.Equal(t, cur, svc.Pipeline.Snapshot().Settings)
	require.Len(t, saved, 1)
	require.Equal(t, KindTransport, svc.Snapshot().LastError.Kind)

	gw.setErr(nil)
	_, err = svc.LoadMore(ctx)
	require.NoError(t, err)
	require.Equal(t, settings.DefaultRadiusMeters, gw.lastQuery().RadiusMeters)

	effect, err = svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	require.Equal(t, settings.Refetch, effect)
	require.Equal(t, 8000, svc.Settings().RadiusMeters)
	require.Equal(t, 8000, gw.lastQuery().RadiusMeters)
}

func TestLoadMoreEmptyPage(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a", "b")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	ctx := context.Background()

	res, err := svc.LoadMore(ctx)
	require.NoError(t, err)
	require.True(t, res.NoReference)

	_, err = svc.Start(ctx)
	require.NoError(t, err)
	before := svc.Snapshot()

	res, err = svc.LoadMore(ctx)
	require.NoError(t, err)
	require.True(t, res.Exhausted)
	after := svc.Snapshot()
	require.Equal(t, before.Total, after.Total)
	require.Equal(t, before.SessionID, after.SessionID)
	require.Nil(t, after.LastError)
}

func TestSubscribe(t *testing.T) {
	gw := &stubGateway{pages: map[int][]venue.Source{0: venues("a")}}
	svc := newService(t, gw, location.Fixed{Point: here})
	ch, cancel := svc.Subscribe()

	_, err := svc.Start(context.Background())
	require.NoError(t, err)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after Start")
	}

	cancel()
	cancel()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
	_, err = svc.Decide(context.Background(), pipeline.Skip)
	require.NoError(t, err)
}

func TestMatchLiked(t *testing.T) {
	ramen := "Ramen"
	list := []venue.Venue{
		{ID: "1", Name: "Ichiran", Category: &ramen},
		{ID: "2", Name: "Sushi Express"},
		{ID: "3", Name: "Suhsi Bar"},
		{ID: "4", Name: "Burger Joint"},
	}

	require.Len(t, matchLiked(list, "  "), 4)
	require.Equal(t, []string{"1"}, likedIDs(matchLiked(list, "RAMEN")))
	require.Equal(t, []string{"2", "3"}, likedIDs(matchLiked(list, "sushi")))
	require.Empty(t, matchLiked(list, "pizza"))
	require.Empty(t, matchLiked(list, "xy"))
}

func likedIDs(vs []venue.Venue) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ID)
	}
	return out
}
