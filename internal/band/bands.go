// Package band defines the ordered loudness bands that drive the mascot:
// classification of readings into bands, transition descriptors between
// adjacent bands, and path decomposition for jumps that cross more than one
// band at once.
package band

import (
	"fmt"
	"math"
)

// Clip describes the steady animation shown while loudness stays inside a
// band.
type Clip struct {
	Name    string
	Loop    bool
	Reverse bool
}

// Band is one discrete bucket of the loudness continuum. Bands are ordered
// by Pos and their [Min, Max) intervals partition the whole real line: the
// first band is open below (-Inf), the last open above (+Inf).
type Band struct {
	Name string
	Pos  int
	Min  float64 // inclusive lower bound in display units
	Max  float64 // exclusive upper bound in display units
	Clip Clip
}

// Unknown marks "no band yet". Its negative position keeps it distinct from
// every band a Set can produce.
var Unknown = Band{Pos: -1}

// Def declares one band for NewSet: a name, the exclusive upper threshold
// (ignored for the last band, whose interval is unbounded above), and the
// steady clip shown while inside it.
type Def struct {
	Name string
	UpTo float64
	Clip Clip
}

// Set is an immutable, validated collection of bands plus the transition
// descriptors between adjacent pairs. Construct with NewSet; the zero value
// is not usable.
type Set struct {
	bands       []Band
	transitions map[int]Transition
}

// NewSet builds a Set from ascending threshold definitions. The first
// band's lower bound is -Inf, the last band's upper bound is +Inf, and each
// band's upper bound is the next band's lower bound, so the intervals
// partition the real line by construction. Transition keys index the lower
// band of the adjacent pair they join: key k bridges positions k and k+1.
func NewSet(defs []Def, transitions map[int]Transition) (*Set, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("band set needs at least one band")
	}

	seen := make(map[string]bool, len(defs))
	bands := make([]Band, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("band %d has no name", i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate band name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Clip.Name == "" {
			return nil, fmt.Errorf("band %q has no steady clip", d.Name)
		}

		last := i == len(defs)-1
		if !last {
			if math.IsNaN(d.UpTo) || math.IsInf(d.UpTo, 0) {
				return nil, fmt.Errorf("band %q has a non-finite threshold", d.Name)
			}
			if i > 0 && d.UpTo <= defs[i-1].UpTo {
				return nil, fmt.Errorf("band thresholds must ascend: %q at %.1f after %.1f",
					d.Name, d.UpTo, defs[i-1].UpTo)
			}
		}

		min := math.Inf(-1)
		if i > 0 {
			min = defs[i-1].UpTo
		}
		max := math.Inf(1)
		if !last {
			max = d.UpTo
		}
		bands[i] = Band{Name: d.Name, Pos: i, Min: min, Max: max, Clip: d.Clip}
	}

	ts := make(map[int]Transition, len(transitions))
	for k, t := range transitions {
		if k < 0 || k >= len(bands)-1 {
			return nil, fmt.Errorf("transition key %d does not join an adjacent pair (have %d bands)", k, len(bands))
		}
		if t.Clip == "" {
			return nil, fmt.Errorf("transition between %q and %q has no clip", bands[k].Name, bands[k+1].Name)
		}
		ts[k] = t
	}

	return &Set{bands: bands, transitions: ts}, nil
}

// Len returns the number of bands.
func (s *Set) Len() int { return len(s.bands) }

// Top returns the topmost (loudest) band.
func (s *Set) Top() Band { return s.bands[len(s.bands)-1] }

// ByPos returns the band at the given order position.
func (s *Set) ByPos(pos int) (Band, bool) {
	if pos < 0 || pos >= len(s.bands) {
		return Unknown, false
	}
	return s.bands[pos], true
}

// ByName returns the band with the given name.
func (s *Set) ByName(name string) (Band, bool) {
	for _, b := range s.bands {
		if b.Name == name {
			return b, true
		}
	}
	return Unknown, false
}

// Bands returns the bands in ascending order. The slice is a copy.
func (s *Set) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

// Classify maps a loudness value to its band. Non-finite values are treated
// as 0 so a broken meter can never push the state machine out of range.
// Bands are checked in ascending order; the topmost band catches anything
// the scan somehow misses.
func (s *Set) Classify(v float64) Band {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	for _, b := range s.bands {
		if v >= b.Min && v < b.Max {
			return b
		}
	}
	return s.bands[len(s.bands)-1]
}
