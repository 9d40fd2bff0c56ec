// Package search talks to venue search providers.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/jask/foodswipe/internal/venue"
)

// MaxLimit is the largest page a provider is asked for.
const MaxLimit = 50

// Query describes one page of a nearby search.
type Query struct {
	Center        venue.Coordinate
	RadiusMeters  int
	CategoryToken string
	Limit         int
	Offset        int
	SortToken     string
	OpenOnly      bool
}

// Validate rejects queries no provider should receive.
func (q Query) Validate() error {
	switch {
	case !q.Center.Valid():
		return fmt.Errorf("center %s out of range", q.Center)
	case q.RadiusMeters <= 0 || q.RadiusMeters > 40000:
		return fmt.Errorf("radius %d out of range", q.RadiusMeters)
	case q.Limit <= 0 || q.Limit > MaxLimit:
		return fmt.Errorf("limit %d out of range", q.Limit)
	case q.Offset < 0:
		return fmt.Errorf("negative offset %d", q.Offset)
	case q.CategoryToken == "":
		return errors.New("empty category")
	}
	return nil
}

// Gateway returns upstream entries in provider order.
type Gateway interface {
	Search(ctx context.Context, q Query) ([]venue.Source, error)
}

// Kind classifies a search failure.
type Kind int

const (
	KindInvalidQuery Kind = iota + 1
	KindTransport
	KindRejected
	KindDecode
)

var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrTransportFailure = errors.New("transport failure")
	ErrUpstreamRejected = errors.New("upstream rejected request")
	ErrDecodeFailure    = errors.New("decode failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidQuery:
		return ErrInvalidQuery
	case KindTransport:
		return ErrTransportFailure
	case KindRejected:
		return ErrUpstreamRejected
	case KindDecode:
		return ErrDecodeFailure
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// Error is returned by every Gateway in this package.
type Error struct {
	Kind   Kind
	Op     string
	Status int // HTTP status for KindRejected
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the package sentinels.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}
