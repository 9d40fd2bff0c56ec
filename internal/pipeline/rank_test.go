package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

func scenario() []venue.Venue {
	img := "https://img.example/x.jpg"
	return []venue.Venue{
		{ID: "A", Rating: ptr(4.5), ImageURL: &img, DistanceMeters: 500},
		{ID: "B", ImageURL: &img, DistanceMeters: 100},
		{ID: "C", Rating: ptr(5.0), DistanceMeters: 2000},
	}
}

func TestScore(t *testing.T) {
	vs := scenario()
	// 4.5*2 + 3 - 0.25
	require.InDelta(t, 11.75, Score(vs[0]), 1e-9)
	require.InDelta(t, 2.95, Score(vs[1]), 1e-9)
	require.InDelta(t, 9.0, Score(vs[2]), 1e-9)
}

func TestFilterAndRankBestMatch(t *testing.T) {
	s := settings.Default()
	s.SortMode = settings.SortBestMatch

	got := FilterAndRank(scenario(), nil, s)
	require.Equal(t, []string{"A", "C", "B"}, ids(got))

	s.MinimumRating = 4
	got = FilterAndRank(scenario(), nil, s)
	require.Equal(t, []string{"A", "C"}, ids(got))
}

func TestFilterAndRankDistanceKeepsUpstreamOrder(t *testing.T) {
	got := FilterAndRank(scenario(), nil, settings.Default())
	require.Equal(t, []string{"A", "B", "C"}, ids(got))
}

func TestFilterAndRankExcludesSeen(t *testing.T) {
	s := settings.Default()
	s.SortMode = settings.SortBestMatch
	seen := map[string]struct{}{"A": {}, "C": {}}
	got := FilterAndRank(scenario(), seen, s)
	require.Equal(t, []string{"B"}, ids(got))
}

func TestFilterAndRankStableTies(t *testing.T) {
	s := settings.Default()
	s.SortMode = settings.SortBestMatch
	pool := []venue.Venue{
		{ID: "t1", Rating: ptr(3.0)},
		{ID: "top", Rating: ptr(5.0)},
		{ID: "t2", Rating: ptr(3.0)},
		{ID: "t3", Rating: ptr(3.0)},
	}
	got := FilterAndRank(pool, nil, s)
	require.Equal(t, []string{"top", "t1", "t2", "t3"}, ids(got))
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, Score(got[i-1]), Score(got[i]))
	}
}

func TestFilterAndRankIdempotent(t *testing.T) {
	s := settings.Default()
	s.SortMode = settings.SortBestMatch
	s.MinimumRating = 0.5
	pool := scenario()
	seen := map[string]struct{}{"B": {}}

	first := FilterAndRank(pool, seen, s)
	second := FilterAndRank(pool, seen, s)
	require.Equal(t, first, second)
	require.Equal(t, scenario(), pool, "input pool is not reordered")
}

func TestFilterAndRankMinimumRatingProperty(t *testing.T) {
	pool := []venue.Venue{
		{ID: "r0", Rating: ptr(0.0)},
		{ID: "r2", Rating: ptr(2.0)},
		{ID: "r35", Rating: ptr(3.5)},
		{ID: "r5", Rating: ptr(5.0)},
		{ID: "nil"},
	}
	for _, minRating := range []float64{0.5, 1, 2, 3.5, 4, 5} {
		s := settings.Default()
		s.MinimumRating = minRating
		for _, v := range FilterAndRank(pool, nil, s) {
			require.NotNil(t, v.Rating, "min %v let through %s", minRating, v.ID)
			require.GreaterOrEqual(t, *v.Rating, minRating)
		}
	}
	s := settings.Default()
	require.Len(t, FilterAndRank(pool, nil, s), 5, "no minimum keeps unrated venues")
}
