package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/foodswipe/internal/venue"
)

// FixtureGateway generates a stable neighbourhood of venues around any
// center. It needs no network and is used for demos and tests.
type FixtureGateway struct {
	Total  int     // venues generated per neighbourhood
	Spread float64 // meters; venues fall within this distance of the center
	Seed   int64
}

func NewFixtureGateway() *FixtureGateway {
	return &FixtureGateway{Total: 120, Spread: 8000, Seed: 1}
}

var (
	fixtureAdjectives = []string{"Golden", "Little", "Lucky", "Night", "Old Town", "Corner", "Harbour", "Rainy Day", "Jade", "Smoky"}
	fixtureNouns      = []string{"Kitchen", "Noodle Bar", "Diner", "Canteen", "Bistro", "Grill", "House", "Table", "Eatery", "Stall"}
)

func (g *FixtureGateway) Search(ctx context.Context, q Query) ([]venue.Source, error) {
	const op = "fixture search"
	if err := q.Validate(); err != nil {
		return nil, newError(op, KindInvalidQuery, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(op, KindTransport, err)
	}

	type placed struct {
		src  venue.Source
		dist float64
	}
	var hits []placed
	for _, src := range g.neighbourhood(q.Center, q.CategoryToken) {
		d := venue.DistanceMeters(q.Center, src.Coordinates)
		if d > float64(q.RadiusMeters) {
			continue
		}
		if q.OpenOnly && src.IsClosed != nil && *src.IsClosed {
			continue
		}
		hits = append(hits, placed{src: src, dist: d})
	}
	if q.SortToken == "distance" {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	}

	if q.Offset >= len(hits) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(hits) {
		end = len(hits)
	}
	out := make([]venue.Source, 0, end-q.Offset)
	for _, h := range hits[q.Offset:end] {
		out = append(out, h.src)
	}
	return out, nil
}

func (g *FixtureGateway) neighbourhood(center venue.Coordinate, token string) []venue.Source {
	total, spread := g.Total, g.Spread
	if total <= 0 {
		total = 120
	}
	if spread <= 0 {
		spread = 8000
	}
	// round the center so small GPS jitter lands in the same neighbourhood
	key := fmt.Sprintf("%.3f,%.3f|%s", center.Latitude, center.Longitude, token)
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	rng := rand.New(rand.NewSource(g.Seed ^ int64(h.Sum64())))

	label := fixtureLabel(token)
	out := make([]venue.Source, 0, total)
	for i := 0; i < total; i++ {
		bearing := rng.Float64() * 2 * math.Pi
		dist := spread * math.Sqrt(rng.Float64())
		lat := center.Latitude + dist*math.Cos(bearing)/111320
		lon := center.Longitude + dist*math.Sin(bearing)/(111320*math.Cos(center.Latitude*math.Pi/180))

		src := venue.Source{
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("venue:%s:%d", key, i))).String(),
			Name:        fixtureAdjectives[rng.Intn(len(fixtureAdjectives))] + " " + fixtureNouns[rng.Intn(len(fixtureNouns))],
			Category:    &label,
			Coordinates: venue.Coordinate{Latitude: lat, Longitude: lon},
		}
		if rng.Intn(5) > 0 {
			r := float64(5+rng.Intn(6)) / 2 // 2.5 .. 5.0
			src.Rating = &r
		}
		if rng.Intn(10) < 7 {
			img := fmt.Sprintf("https://picsum.photos/seed/%s/600/400", src.ID[:8])
			src.ImageURL = &img
		}
		switch rng.Intn(10) {
		case 0:
			closed := true
			src.IsClosed = &closed
		case 1, 2:
			// no closure data
		default:
			closed := false
			src.IsClosed = &closed
		}
		if rng.Intn(3) > 0 {
			raw := fmt.Sprintf("+8862%08d", rng.Intn(1e8))
			display := fmt.Sprintf("02 %s %s", raw[5:9], raw[9:])
			src.Phone, src.DisplayPhone = &raw, &display
		}
		out = append(out, src)
	}
	return out
}

func fixtureLabel(token string) string {
	first := strings.TrimSpace(strings.Split(token, ",")[0])
	if first == "" {
		return "Restaurants"
	}
	first = strings.ReplaceAll(first, "_", " ")
	return strings.ToUpper(first[:1]) + first[1:]
}
