package pipeline

import (
	"sort"

	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

// Best-match score weights.
const (
	RatingWeight        = 2.0
	ImageBonus          = 3.0
	DistancePenaltyPerK = 0.5
)

// Score blends rating, photo presence and distance. Higher is better.
func Score(v venue.Venue) float64 {
	score := v.RatingOr(0) * RatingWeight
	if v.HasImage() {
		score += ImageBonus
	}
	score -= (v.DistanceMeters / 1000.0) * DistancePenaltyPerK
	return score
}

// FilterAndRank derives the candidate list from the fetched pool. It never
// mutates its inputs and returns the same order for the same inputs.
func FilterAndRank(all []venue.Venue, seen map[string]struct{}, s settings.Settings) []venue.Venue {
	out := make([]venue.Venue, 0, len(all))
	for _, v := range all {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		if s.MinimumRating > 0 && (v.Rating == nil || *v.Rating < s.MinimumRating) {
			continue
		}
		out = append(out, v)
	}
	if s.SortMode == settings.SortBestMatch {
		scores := make(map[string]float64, len(out))
		for _, v := range out {
			scores[v.ID] = Score(v)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return scores[out[i].ID] > scores[out[j].ID]
		})
	}
	return out
}
