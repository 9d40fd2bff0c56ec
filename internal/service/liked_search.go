package service

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jask/foodswipe/internal/venue"
)

type likedMatch struct {
	v     venue.Venue
	exact bool
	dist  int
	order int
}

// SearchLiked filters the liked list by name or category. Substring matches
// come first in liked order, then near misses by edit distance. An empty
// query returns the whole list.
func (s *SessionService) SearchLiked(query string) []venue.Venue {
	return matchLiked(s.Liked.List(), query)
}

func matchLiked(list []venue.Venue, query string) []venue.Venue {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	// one edit allowed per three runes of query
	budget := (utf8.RuneCountInString(q) + 1) / 3

	var hits []likedMatch
	for i, v := range list {
		hay := strings.ToLower(v.Name + " " + v.CategoryLabel())
		if strings.Contains(hay, q) {
			hits = append(hits, likedMatch{v: v, exact: true, order: i})
			continue
		}
		if budget == 0 {
			continue
		}
		best := -1
		for _, word := range strings.Fields(hay) {
			d := levenshtein.ComputeDistance(q, word)
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 && best <= budget {
			hits = append(hits, likedMatch{v: v, dist: best, order: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].exact != hits[j].exact {
			return hits[i].exact
		}
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].order < hits[j].order
	})
	out := make([]venue.Venue, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.v)
	}
	return out
}
