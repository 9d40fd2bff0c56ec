package venue

import (
	"errors"
	"strings"
)

// ErrMissingID is returned for upstream entries without a usable identifier.
var ErrMissingID = errors.New("venue: missing id")

// Source is the upstream shape consumed by Normalize. Pointer fields are
// optional: nil means the upstream sent nothing.
type Source struct {
	ID           string
	Name         string
	Category     *string
	ImageURL     *string
	Coordinates  Coordinate
	Rating       *float64
	IsClosed     *bool
	Phone        *string
	DisplayPhone *string
}

// Normalize turns an upstream entry into a Venue, computing the distance from
// ref when one is given.
func Normalize(src Source, ref *Coordinate) (Venue, error) {
	id := strings.TrimSpace(src.ID)
	if id == "" {
		return Venue{}, ErrMissingID
	}
	v := Venue{
		ID:           id,
		Name:         strings.TrimSpace(src.Name),
		Category:     nonEmpty(src.Category),
		ImageURL:     nonEmpty(src.ImageURL),
		Coordinates:  src.Coordinates,
		DisplayPhone: nonEmpty(src.DisplayPhone),
		RawPhone:     nonEmpty(src.Phone),
		Rating:       clampRating(src.Rating),
		// absence of closure data counts as open
		IsOpenNow: src.IsClosed == nil || !*src.IsClosed,
	}
	if ref != nil {
		v.DistanceMeters = DistanceMeters(*ref, src.Coordinates)
	}
	return v, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func clampRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	if v < 0 {
		v = 0
	}
	if v > 5 {
		v = 5
	}
	return &v
}
