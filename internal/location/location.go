// Package location supplies the reference point a search is centred on.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/jask/foodswipe/internal/venue"
)

// ErrUnavailable means no reference coordinate could be obtained.
var ErrUnavailable = errors.New("location unavailable")

// Source answers a single request for the current position.
type Source interface {
	CurrentLocation(ctx context.Context) (venue.Coordinate, error)
}

// Fixed always reports the same coordinate.
type Fixed struct {
	Point venue.Coordinate
}

func (f Fixed) CurrentLocation(ctx context.Context) (venue.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return venue.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !f.Point.Valid() {
		return venue.Coordinate{}, fmt.Errorf("%w: %s is not a valid coordinate", ErrUnavailable, f.Point)
	}
	return f.Point, nil
}

// Unavailable is used when nothing is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) CurrentLocation(context.Context) (venue.Coordinate, error) {
	if u.Reason == "" {
		return venue.Coordinate{}, ErrUnavailable
	}
	return venue.Coordinate{}, fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

// Func adapts a function to Source.
type Func func(ctx context.Context) (venue.Coordinate, error)

func (f Func) CurrentLocation(ctx context.Context) (venue.Coordinate, error) { return f(ctx) }
