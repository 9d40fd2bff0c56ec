package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Direction is the user's verdict on a candidate.
type Direction int

const (
	Skip Direction = iota
	Like
)

func (d Direction) String() string {
	if d == Like {
		return "like"
	}
	return "skip"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "left", "pass":
		return Skip, nil
	case "like", "right":
		return Like, nil
	}
	return Skip, fmt.Errorf("unknown direction %q", s)
}

// ErrNoCandidate is returned by Decide when the cursor is exhausted.
var ErrNoCandidate = errors.New("no candidate to decide on")

// Decision describes an applied decision.
type Decision struct {
	VenueID   string
	Direction Direction
	// NewlyLiked is false for skips and for likes of an already liked venue.
	NewlyLiked bool
}

// Decide applies d to the current candidate: the venue is marked seen, the
// cursor advances by one, and a like is recorded in the liked store.
func (p *Pipeline) Decide(ctx context.Context, d Direction) (Decision, error) {
	p.mu.Lock()
	v, ok := p.currentLocked()
	if !ok {
		p.mu.Unlock()
		return Decision{}, ErrNoCandidate
	}
	p.st.seen[v.ID] = struct{}{}
	p.st.currentIndex++
	p.mu.Unlock()

	res := Decision{VenueID: v.ID, Direction: d}
	if d == Like && p.liked != nil && !p.liked.Contains(v.ID) {
		res.NewlyLiked = p.liked.Add(ctx, v)
	}
	return res, nil
}
