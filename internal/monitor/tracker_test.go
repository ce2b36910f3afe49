package monitor

import (
	"testing"
	"time"
)

const testDwell = 40 * time.Millisecond

func makeTracker(t *testing.T, stats *Stats) *Tracker {
	t.Helper()
	tr, err := NewTracker(makeSet(t), EscalationPolicy{Timeout: testDwell}, stats)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func TestNewTrackerValidation(t *testing.T) {
	set := makeSet(t)

	t.Run("default exit is one below topmost", func(t *testing.T) {
		tr, err := NewTracker(set, EscalationPolicy{}, nil)
		if err != nil {
			t.Fatalf("NewTracker: %v", err)
		}
		if tr.Exit().Name != "loud" {
			t.Errorf("default exit = %q, want loud", tr.Exit().Name)
		}
	})

	t.Run("zero timeout takes the default", func(t *testing.T) {
		tr, err := NewTracker(set, EscalationPolicy{}, nil)
		if err != nil {
			t.Fatalf("NewTracker: %v", err)
		}
		if tr.timeout != DefaultEscalationTimeout {
			t.Errorf("timeout = %v, want %v", tr.timeout, DefaultEscalationTimeout)
		}
	})

	t.Run("named exit band", func(t *testing.T) {
		tr, err := NewTracker(set, EscalationPolicy{ExitBand: "lively"}, nil)
		if err != nil {
			t.Fatalf("NewTracker: %v", err)
		}
		if tr.Exit().Name != "lively" {
			t.Errorf("exit = %q, want lively", tr.Exit().Name)
		}
	})

	t.Run("unknown exit band rejected", func(t *testing.T) {
		if _, err := NewTracker(set, EscalationPolicy{ExitBand: "silent"}, nil); err == nil {
			t.Error("NewTracker succeeded with unknown exit band")
		}
	})

	t.Run("topmost exit band rejected", func(t *testing.T) {
		if _, err := NewTracker(set, EscalationPolicy{ExitBand: "rowdy"}, nil); err == nil {
			t.Error("NewTracker succeeded with topmost exit band")
		}
	})
}

// TestTrackerEmitsResolverTransitions checks the NORMAL-state behavior:
// adjacent moves come back with the pair's transition plan, directed by the
// move, and the tracker records the new band.
func TestTrackerEmitsResolverTransitions(t *testing.T) {
	tr := makeTracker(t, nil)

	b, plan := tr.Observe(80)
	if b.Name != "lively" {
		t.Fatalf("Observe(80) band = %q, want lively", b.Name)
	}
	if plan == nil || plan.Clip != "stir" || plan.Reverse {
		t.Fatalf("Observe(80) plan = %+v, want stir forward", plan)
	}

	b, plan = tr.Observe(90)
	if b.Name != "loud" || plan == nil || plan.Clip != "alert" || plan.Reverse {
		t.Fatalf("Observe(90) = %q, %+v, want loud with alert forward", b.Name, plan)
	}

	b, plan = tr.Observe(80)
	if b.Name != "lively" || plan == nil || plan.Clip != "alert" || !plan.Reverse {
		t.Fatalf("Observe(80) = %q, %+v, want lively with alert reverse", b.Name, plan)
	}

	// Steady: same band again resolves to nothing.
	b, plan = tr.Observe(81)
	if b.Name != "lively" || plan != nil {
		t.Fatalf("steady Observe(81) = %q, %+v, want lively with nil plan", b.Name, plan)
	}

	// Non-adjacent jump: band moves but the plan is nil, so the caller
	// must walk the path itself.
	b, plan = tr.Observe(100)
	if b.Name != "rowdy" || plan != nil {
		t.Fatalf("jump Observe(100) = %q, %+v, want rowdy with nil plan", b.Name, plan)
	}
}

// TestTrackerEscalation walks the full meltdown lifecycle: silent entry
// after sustained dwell, stickiness against everything but the exit band,
// and a single reverse transition on the way out.
func TestTrackerEscalation(t *testing.T) {
	stats := NewStats(makeSet(t))
	tr := makeTracker(t, stats)

	// Arm the dwell timer.
	if b, _ := tr.Observe(96); b.Name != "rowdy" {
		t.Fatalf("Observe(96) band = %q, want rowdy", b.Name)
	}
	if tr.Meltdown() {
		t.Fatal("meltdown latched before the dwell elapsed")
	}

	// Still within the dwell window: no escalation, steady output.
	if b, plan := tr.Observe(97); b.Name != "rowdy" || plan != nil {
		t.Fatalf("pre-timeout Observe = %q, %+v, want rowdy with nil plan", b.Name, plan)
	}

	time.Sleep(testDwell + 15*time.Millisecond)

	// The reading that crosses the timeout escalates silently.
	b, plan := tr.Observe(98)
	if b.Name != "rowdy" || plan != nil {
		t.Fatalf("escalating Observe = %q, %+v, want rowdy with nil plan", b.Name, plan)
	}
	if !tr.Meltdown() {
		t.Fatal("tracker did not latch meltdown after the dwell")
	}

	// Sticky: neither quiet nor loud-but-not-exit input releases it.
	for _, v := range []float64{20, 96, 120, 60} {
		b, plan := tr.Observe(v)
		if b.Name != "rowdy" || plan != nil {
			t.Fatalf("meltdown Observe(%v) = %q, %+v, want rowdy with nil plan", v, b.Name, plan)
		}
		if !tr.Meltdown() {
			t.Fatalf("meltdown released by %v", v)
		}
	}

	// The exit band releases it with exactly one reverse transition.
	b, plan = tr.Observe(90)
	if b.Name != "loud" {
		t.Fatalf("exit Observe(90) band = %q, want loud", b.Name)
	}
	if plan == nil || plan.Clip != "frenzy" || !plan.Reverse {
		t.Fatalf("exit plan = %+v, want frenzy reverse", plan)
	}
	if tr.Meltdown() {
		t.Fatal("meltdown still latched after exit")
	}

	// Back to normal operation afterwards.
	if b, plan := tr.Observe(90); b.Name != "loud" || plan != nil {
		t.Fatalf("post-exit Observe = %q, %+v, want steady loud", b.Name, plan)
	}

	snap := stats.Snapshot()
	if snap.Escalations != 1 {
		t.Errorf("Escalations = %d, want 1", snap.Escalations)
	}
	if snap.MeltdownActive {
		t.Error("snapshot still reports an active meltdown")
	}
	if snap.MeltdownTime <= 0 {
		t.Errorf("MeltdownTime = %v, want > 0", snap.MeltdownTime)
	}
}

// TestTrackerDwellReset checks that dipping out of the topmost band before
// the timeout rearms the dwell from scratch.
func TestTrackerDwellReset(t *testing.T) {
	tr := makeTracker(t, nil)

	tr.Observe(96)
	time.Sleep(testDwell / 2)
	tr.Observe(80) // dip clears the timer
	tr.Observe(96) // rearm
	time.Sleep(testDwell / 2)

	// Total top time exceeds the dwell but continuous top time does not.
	if _, _ = tr.Observe(96); tr.Meltdown() {
		t.Fatal("meltdown latched despite the dip")
	}

	time.Sleep(testDwell)
	if _, _ = tr.Observe(96); !tr.Meltdown() {
		t.Fatal("meltdown missing after a full uninterrupted dwell")
	}
}
