package service

import (
	"errors"
	"fmt"

	"github.com/jask/foodswipe/internal/location"
	"github.com/jask/foodswipe/internal/search"
)

// ErrBusy is returned by UpdateSettings when the search a change needs was
// skipped because another one is still running. The change is not applied.
var ErrBusy = errors.New("a search is already running")

// Kind classifies a failure for display.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidQuery
	KindTransport
	KindRejected
	KindDecode
	KindLocationUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidQuery:
		return "invalid_query"
	case KindTransport:
		return "transport_failure"
	case KindRejected:
		return "upstream_rejected"
	case KindDecode:
		return "decode_failure"
	case KindLocationUnavailable:
		return "location_unavailable"
	default:
		return "unknown"
	}
}

// Failure is the error recorded as a session's LastError.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message is a short user-facing description of the failure.
func (f *Failure) Message() string {
	switch f.Kind {
	case KindInvalidQuery:
		return "The search parameters were rejected before sending."
	case KindTransport:
		return "Network request failed. Check your connection and try again."
	case KindRejected:
		var se *search.Error
		if errors.As(f.Err, &se) && (se.Status == 401 || se.Status == 403) {
			return "The search provider refused the request. Check your API key."
		}
		return "The search provider returned an error response."
	case KindDecode:
		return "Could not read the search provider's response."
	case KindLocationUnavailable:
		return "Location is unavailable. Set location.latitude and location.longitude."
	default:
		return "Something went wrong: " + f.Err.Error()
	}
}

func classify(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	kind := KindUnknown
	switch {
	case errors.Is(err, location.ErrUnavailable):
		kind = KindLocationUnavailable
	case errors.Is(err, search.ErrInvalidQuery):
		kind = KindInvalidQuery
	case errors.Is(err, search.ErrTransportFailure):
		kind = KindTransport
	case errors.Is(err, search.ErrUpstreamRejected):
		kind = KindRejected
	case errors.Is(err, search.ErrDecodeFailure):
		kind = KindDecode
	}
	return &Failure{Kind: kind, Err: err}
}
