package monitor

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorStop pins a color to a loudness value on the background ramp.
type ColorStop struct {
	At  float64
	Hex string
}

// ColorRamp interpolates a background color from loudness. It is pure and
// cheap, so the controller applies it on every reading with no rate limit.
type ColorRamp struct {
	stops []rampStop
}

type rampStop struct {
	at  float64
	col colorful.Color
}

// NewColorRamp validates and compiles a keyframe table: at least two stops,
// strictly ascending loudness, parseable hex colors.
func NewColorRamp(stops []ColorStop) (*ColorRamp, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("color ramp needs at least two stops, got %d", len(stops))
	}
	compiled := make([]rampStop, len(stops))
	for i, s := range stops {
		if math.IsNaN(s.At) || math.IsInf(s.At, 0) {
			return nil, fmt.Errorf("color stop %d has a non-finite loudness", i)
		}
		if i > 0 && s.At <= stops[i-1].At {
			return nil, fmt.Errorf("color stops must ascend: %.1f after %.1f", s.At, stops[i-1].At)
		}
		col, err := colorful.Hex(s.Hex)
		if err != nil {
			return nil, fmt.Errorf("color stop at %.1f: %w", s.At, err)
		}
		compiled[i] = rampStop{at: s.At, col: col}
	}
	return &ColorRamp{stops: compiled}, nil
}

// Color returns the ramp color at the given loudness as a hex string.
// Non-finite input maps to the first stop's loudness. Outside the table the
// nearest end color is returned unchanged; between stops each channel is
// interpolated linearly and rounded to the nearest byte.
func (r *ColorRamp) Color(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = r.stops[0].at
	}
	if value <= r.stops[0].at {
		return r.stops[0].col.Hex()
	}
	last := r.stops[len(r.stops)-1]
	if value >= last.at {
		return last.col.Hex()
	}
	for i := 1; i < len(r.stops); i++ {
		if value < r.stops[i].at {
			lo, hi := r.stops[i-1], r.stops[i]
			frac := (value - lo.at) / (hi.at - lo.at)
			return lo.col.BlendRgb(hi.col, frac).Hex()
		}
	}
	return last.col.Hex()
}
