package monitor

import (
	"fmt"
	"time"

	"github.com/linuxmatters/hushpuppy/internal/band"
)

// DefaultEscalationTimeout is the continuous dwell in the topmost band that
// latches the tracker into meltdown.
const DefaultEscalationTimeout = 10 * time.Second

// EscalationPolicy configures the sustained-state tracker.
type EscalationPolicy struct {
	// Timeout is the continuous dwell in the topmost band before the
	// tracker escalates. Zero means DefaultEscalationTimeout.
	Timeout time.Duration
	// ExitBand names the band that releases a meltdown. Empty means the
	// band one position below the topmost.
	ExitBand string
}

// Tracker layers sustained-state escalation on the classifier: dwell long
// enough in the topmost band and it latches into meltdown, which only the
// designated exit band releases. Escalation happens silently (no clip);
// leaving meltdown emits exactly one reverse transition. Not safe for
// concurrent use on its own; the controller serialises access.
type Tracker struct {
	set     *band.Set
	timeout time.Duration
	top     band.Band
	exit    band.Band
	stats   *Stats

	current    band.Band
	meltdown   bool
	dwellStart time.Time
}

// NewTracker validates the policy against the set. Stats may be nil.
func NewTracker(set *band.Set, policy EscalationPolicy, stats *Stats) (*Tracker, error) {
	if set.Len() < 2 {
		return nil, fmt.Errorf("escalation needs at least two bands, got %d", set.Len())
	}

	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = DefaultEscalationTimeout
	}

	top := set.Top()
	var exit band.Band
	if policy.ExitBand == "" {
		exit, _ = set.ByPos(top.Pos - 1)
	} else {
		var ok bool
		exit, ok = set.ByName(policy.ExitBand)
		if !ok {
			return nil, fmt.Errorf("unknown exit band %q", policy.ExitBand)
		}
		if exit.Pos >= top.Pos {
			return nil, fmt.Errorf("exit band %q must sit below the topmost band %q", exit.Name, top.Name)
		}
	}

	return &Tracker{
		set:     set,
		timeout: timeout,
		top:     top,
		exit:    exit,
		stats:   stats,
		current: set.Classify(0),
	}, nil
}

// Observe runs one reading through the escalation state machine and returns
// the band to settle in plus an optional directly-resolved transition. A
// nil plan with an unchanged band is the steady no-op; a nil plan with a
// changed band tells the controller to walk the path itself.
func (t *Tracker) Observe(value float64) (band.Band, *band.Plan) {
	next := t.set.Classify(value)
	now := time.Now()

	if t.meltdown {
		if next.Pos != t.exit.Pos {
			return t.top, nil
		}
		t.meltdown = false
		t.dwellStart = time.Time{}
		t.current = t.exit
		if t.stats != nil {
			t.stats.noteMeltdownEnd(now)
		}
		return t.exit, t.set.Resolve(t.top, t.exit)
	}

	if next.Pos == t.top.Pos {
		if t.dwellStart.IsZero() {
			t.dwellStart = now
		} else if now.Sub(t.dwellStart) >= t.timeout {
			t.meltdown = true
			t.current = t.top
			if t.stats != nil {
				t.stats.noteEscalation(now)
			}
			return t.top, nil
		}
		prev := t.current
		t.current = t.top
		return t.top, t.set.Resolve(prev, t.top)
	}

	t.dwellStart = time.Time{}
	prev := t.current
	t.current = next
	return next, t.set.Resolve(prev, next)
}

// Meltdown reports whether the tracker is latched in meltdown.
func (t *Tracker) Meltdown() bool { return t.meltdown }

// Current returns the band the tracker last settled on.
func (t *Tracker) Current() band.Band { return t.current }

// Exit returns the band that releases a meltdown.
func (t *Tracker) Exit() band.Band { return t.exit }
