package monitor

import (
	"math"
	"testing"
	"time"
)

func TestStatsLevels(t *testing.T) {
	set := makeSet(t)
	s := NewStats(set)
	quiet, _ := set.ByName("quiet")
	lively, _ := set.ByName("lively")

	s.AddReading(60, quiet)
	s.AddReading(70, quiet)
	s.AddReading(80, lively)
	s.AddReading(90, lively)

	snap := s.Snapshot()
	if snap.Readings != 4 {
		t.Errorf("Readings = %d, want 4", snap.Readings)
	}
	if snap.Min != 60 || snap.Max != 90 {
		t.Errorf("Min/Max = %v/%v, want 60/90", snap.Min, snap.Max)
	}
	if snap.Mean != 75 {
		t.Errorf("Mean = %v, want 75", snap.Mean)
	}
	if snap.FirstHalfMean != 65 {
		t.Errorf("FirstHalfMean = %v, want 65", snap.FirstHalfMean)
	}
	if snap.SecondHalfMean != 85 {
		t.Errorf("SecondHalfMean = %v, want 85", snap.SecondHalfMean)
	}
	// No NotePeak calls: the peak falls back to the level maximum.
	if snap.Peak != 90 {
		t.Errorf("Peak = %v, want fallback to max 90", snap.Peak)
	}
}

func TestStatsSingleReading(t *testing.T) {
	set := makeSet(t)
	s := NewStats(set)
	quiet, _ := set.ByName("quiet")

	s.AddReading(64, quiet)

	snap := s.Snapshot()
	if snap.Mean != 64 || snap.FirstHalfMean != 64 || snap.SecondHalfMean != 64 {
		t.Errorf("means = %v/%v/%v, want all 64",
			snap.Mean, snap.FirstHalfMean, snap.SecondHalfMean)
	}
}

func TestStatsEmptySnapshot(t *testing.T) {
	s := NewStats(makeSet(t))
	snap := s.Snapshot()

	if snap.Readings != 0 {
		t.Errorf("Readings = %d, want 0", snap.Readings)
	}
	for desc, v := range map[string]float64{
		"Min": snap.Min, "Mean": snap.Mean, "Max": snap.Max,
		"FirstHalfMean": snap.FirstHalfMean, "SecondHalfMean": snap.SecondHalfMean,
		"Peak": snap.Peak,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v, want NaN with no readings", desc, v)
		}
	}
	if len(snap.Occupancy) != 4 {
		t.Errorf("Occupancy has %d bands, want 4", len(snap.Occupancy))
	}
}

func TestStatsOccupancy(t *testing.T) {
	set := makeSet(t)
	s := NewStats(set)
	quiet, _ := set.ByName("quiet")
	lively, _ := set.ByName("lively")

	s.AddReading(60, quiet)
	time.Sleep(20 * time.Millisecond)
	s.AddReading(60, quiet)
	time.Sleep(20 * time.Millisecond)
	s.AddReading(80, lively)

	snap := s.Snapshot()
	// Time between readings belongs to the band reported first, so both
	// sleeps land on quiet and lively has nothing yet.
	if snap.Occupancy[0].Time < 30*time.Millisecond {
		t.Errorf("quiet occupancy = %v, want ~40ms", snap.Occupancy[0].Time)
	}
	if snap.Occupancy[1].Time != 0 {
		t.Errorf("lively occupancy = %v, want 0", snap.Occupancy[1].Time)
	}
	if snap.Occupancy[0].Readings != 2 || snap.Occupancy[1].Readings != 1 {
		t.Errorf("reading counts = %d/%d, want 2/1",
			snap.Occupancy[0].Readings, snap.Occupancy[1].Readings)
	}
}

// TestStatsGapClamp: a stalled source must not inflate occupancy beyond
// maxReadingGap per reading.
func TestStatsGapClamp(t *testing.T) {
	set := makeSet(t)
	s := NewStats(set)
	quiet, _ := set.ByName("quiet")

	s.AddReading(60, quiet)
	s.mu.Lock()
	s.lastAt = time.Now().Add(-10 * time.Second)
	s.mu.Unlock()
	s.AddReading(60, quiet)

	snap := s.Snapshot()
	if snap.Occupancy[0].Time != maxReadingGap {
		t.Errorf("quiet occupancy = %v, want clamped to %v", snap.Occupancy[0].Time, maxReadingGap)
	}
}

func TestStatsPeak(t *testing.T) {
	set := makeSet(t)
	s := NewStats(set)
	lively, _ := set.ByName("lively")

	s.AddReading(80, lively)
	s.NotePeak(88, false)
	s.NotePeak(92, true)
	s.NotePeak(85, false)

	snap := s.Snapshot()
	if snap.Peak != 92 {
		t.Errorf("Peak = %v, want 92", snap.Peak)
	}
	if snap.Clips != 1 {
		t.Errorf("Clips = %d, want 1", snap.Clips)
	}
}

func TestStatsMeltdownAccounting(t *testing.T) {
	s := NewStats(makeSet(t))
	now := time.Now()

	s.noteEscalation(now.Add(-50 * time.Millisecond))
	snap := s.Snapshot()
	if !snap.MeltdownActive {
		t.Error("open meltdown not reported active")
	}
	if snap.MeltdownTime < 40*time.Millisecond {
		t.Errorf("open MeltdownTime = %v, want ~50ms", snap.MeltdownTime)
	}

	s.noteMeltdownEnd(now)
	snap = s.Snapshot()
	if snap.MeltdownActive {
		t.Error("closed meltdown still reported active")
	}
	if snap.MeltdownTime != 50*time.Millisecond {
		t.Errorf("MeltdownTime = %v, want exactly 50ms", snap.MeltdownTime)
	}

	// A second meltdown accumulates.
	s.noteEscalation(now)
	s.noteMeltdownEnd(now.Add(30 * time.Millisecond))
	snap = s.Snapshot()
	if snap.Escalations != 2 {
		t.Errorf("Escalations = %d, want 2", snap.Escalations)
	}
	if snap.MeltdownTime != 80*time.Millisecond {
		t.Errorf("accumulated MeltdownTime = %v, want 80ms", snap.MeltdownTime)
	}
}
