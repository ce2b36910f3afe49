// Package monitor turns loudness readings into an orderly animation story:
// classification into bands, transition planning, sustained-state
// escalation, and last-wins sequencing against the player capability.
package monitor

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/hushpuppy/internal/band"
)

// ControllerConfig wires a Controller. Set and Player are required;
// everything else is optional. A nil Tracker gives the plain classifier
// behavior with no escalation.
type ControllerConfig struct {
	Set        *band.Set
	Player     Player
	Tracker    *Tracker
	Ramp       *ColorRamp
	Background func(hex string)
	Stats      *Stats
	Logf       func(format string, args ...interface{})
}

// Controller owns the per-session animation state: the last settled band
// and the sequence token that keeps overlapping playback plans from
// racing. OnReading never blocks on playback and never fails; playback
// plans run in their own goroutines and abandon themselves as soon as a
// newer reading takes the token.
type Controller struct {
	set        *band.Set
	player     Player
	tracker    *Tracker
	ramp       *ColorRamp
	background func(hex string)
	stats      *Stats
	logf       func(format string, args ...interface{})

	mu   sync.Mutex
	prev band.Band

	seq atomic.Uint64
}

// NewController seeds the settled band by classifying zero, so the first
// real reading animates up from the bottom of the scale.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Set == nil {
		return nil, fmt.Errorf("controller needs a band set")
	}
	if cfg.Player == nil {
		return nil, fmt.Errorf("controller needs a player")
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Controller{
		set:        cfg.Set,
		player:     cfg.Player,
		tracker:    cfg.Tracker,
		ramp:       cfg.Ramp,
		background: cfg.Background,
		stats:      cfg.Stats,
		logf:       logf,
		prev:       cfg.Set.Classify(0),
	}, nil
}

// OnReading feeds one loudness value through the state machine. Non-finite
// values are treated as zero. The color ramp applies on every call, before
// the player-ready check; if the player is not ready nothing else happens.
// A reading that changes the band (or carries a tracker-resolved plan)
// claims the sequence token and plays out asynchronously.
func (c *Controller) OnReading(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}

	if c.stats != nil {
		c.stats.AddReading(value, c.set.Classify(value))
	}
	if c.ramp != nil && c.background != nil {
		c.background(c.ramp.Color(value))
	}
	if !c.player.Ready() {
		return
	}

	c.mu.Lock()
	var (
		next band.Band
		plan *band.Plan
	)
	if c.tracker != nil {
		next, plan = c.tracker.Observe(value)
	} else {
		next = c.set.Classify(value)
	}
	if next.Pos == c.prev.Pos && plan == nil {
		// Steady fast path: same band, nothing resolved, no player calls.
		c.mu.Unlock()
		return
	}
	prev := c.prev
	token := c.seq.Add(1)
	c.mu.Unlock()

	go c.play(token, prev, next, plan)
}

// Stop invalidates any in-flight playback plan. Player calls already
// issued cannot be recalled; everything after them is skipped.
func (c *Controller) Stop() {
	c.seq.Add(1)
}

// Current returns the last settled band.
func (c *Controller) Current() band.Band {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prev
}

// Meltdown reports whether the tracker (if any) is latched in meltdown.
func (c *Controller) Meltdown() bool {
	if c.tracker == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.Meltdown()
}

// play runs one playback plan: either the tracker's single resolved
// transition, or the full path decomposition from prev to next. Only a
// plan that finishes while still owning the newest token advances the
// settled band.
func (c *Controller) play(token uint64, prev, next band.Band, plan *band.Plan) {
	if c.seq.Load() != token {
		return
	}

	if plan != nil {
		if !c.step(token, *plan) {
			return
		}
	} else {
		path := c.set.Path(prev, next)
		for i := 0; i+1 < len(path); i++ {
			p := c.set.Resolve(path[i], path[i+1])
			if p == nil {
				// Configuration gap: nothing to animate for this pair.
				continue
			}
			if !c.step(token, *p) {
				return
			}
		}
	}

	// Re-check right before the settling load so a superseded plan cannot
	// paint the final state.
	if c.seq.Load() != token {
		return
	}
	c.load(LoadRequest{
		Clip:     next.Clip.Name,
		Autoplay: true,
		Loop:     next.Clip.Loop,
		Reverse:  next.Clip.Reverse,
	})
	if c.seq.Load() != token {
		return
	}

	c.mu.Lock()
	if c.seq.Load() == token {
		c.prev = next
	}
	c.mu.Unlock()
}

// step plays one transition clip and waits out its duration. It reports
// whether the owning token is still the newest afterwards.
func (c *Controller) step(token uint64, plan band.Plan) bool {
	c.load(LoadRequest{
		Clip:     plan.Clip,
		Autoplay: true,
		Loop:     false,
		Reverse:  plan.Reverse,
	})
	if c.stats != nil {
		c.stats.noteTransition()
	}
	if c.seq.Load() != token {
		return false
	}
	time.Sleep(plan.Duration)
	return c.seq.Load() == token
}

func (c *Controller) load(req LoadRequest) {
	if err := c.player.Load(req); err != nil {
		c.logf("monitor: load %s: %v", req.Clip, err)
	}
}
