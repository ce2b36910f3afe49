package band

import "time"

// DefaultTransitionDuration paces transitions whose descriptor leaves the
// duration unset.
const DefaultTransitionDuration = 2 * time.Second

// Transition describes the one-shot clip bridging an adjacent pair of
// bands. The same clip serves both directions: it plays forward moving up
// and in reverse moving down. A zero Duration falls back to
// DefaultTransitionDuration at resolve time.
type Transition struct {
	Clip     string
	Duration time.Duration
}

// Plan is a resolved transition: the clip to play once, how long it runs,
// and whether it plays backwards.
type Plan struct {
	Clip     string
	Duration time.Duration
	Reverse  bool
}

// Direction is the sign of a band change.
type Direction int

const (
	Steady Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "steady"
	}
}

// Direction compares band order. Equal positions or an unknown band on
// either side mean Steady.
func (s *Set) Direction(prev, next Band) Direction {
	if prev.Pos < 0 || next.Pos < 0 || prev.Pos == next.Pos {
		return Steady
	}
	if next.Pos > prev.Pos {
		return Up
	}
	return Down
}

// Resolve returns the transition plan between two adjacent bands, or nil
// when there is nothing to play: steady or unknown input, a jump wider than
// one position (decompose with Path first), or a pair with no descriptor
// configured.
func (s *Set) Resolve(prev, next Band) *Plan {
	if s.Direction(prev, next) == Steady {
		return nil
	}
	lo, hi := prev.Pos, next.Pos
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo != 1 {
		return nil
	}
	t, ok := s.transitions[lo]
	if !ok {
		return nil
	}
	d := t.Duration
	if d <= 0 {
		d = DefaultTransitionDuration
	}
	return &Plan{Clip: t.Clip, Duration: d, Reverse: next.Pos < prev.Pos}
}

// Path expands a band change into the inclusive chain of bands from prev to
// next, one position at a time, so the caller never skips a visual state.
// An unknown prev yields just the destination.
func (s *Set) Path(prev, next Band) []Band {
	if prev.Pos < 0 || prev.Pos >= len(s.bands) ||
		next.Pos < 0 || next.Pos >= len(s.bands) {
		return []Band{next}
	}
	step := 1
	if next.Pos < prev.Pos {
		step = -1
	}
	path := make([]Band, 0, abs(next.Pos-prev.Pos)+1)
	for p := prev.Pos; ; p += step {
		path = append(path, s.bands[p])
		if p == next.Pos {
			break
		}
	}
	return path
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
