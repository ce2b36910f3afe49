package monitor

import (
	"math"
	"sync"
	"time"

	"github.com/linuxmatters/hushpuppy/internal/band"
)

// maxReadingGap caps the time attributed between two readings so a stalled
// source does not inflate band occupancy.
const maxReadingGap = 2 * time.Second

// Stats accumulates session aggregates: level statistics, per-band
// occupancy, transition and escalation counts. Safe for concurrent use.
type Stats struct {
	mu sync.Mutex

	start    time.Time
	lastAt   time.Time
	lastBand band.Band

	levels []float64
	sum    float64
	min    float64
	max    float64
	peak   float64
	clips  int

	bands   []band.Band
	tallies []bandTally

	transitions   int
	escalations   int
	meltdownOpen  time.Time
	meltdownTotal time.Duration
}

type bandTally struct {
	time     time.Duration
	readings int
}

// BandOccupancy is the per-band share of the session.
type BandOccupancy struct {
	Band     string
	Pos      int
	Time     time.Duration
	Readings int
}

// StatsSnapshot is a consistent copy of the accumulated session state.
type StatsSnapshot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration

	Readings       int
	Min            float64
	Mean           float64
	Max            float64
	FirstHalfMean  float64
	SecondHalfMean float64
	Peak           float64
	Clips          int

	Occupancy []BandOccupancy

	Transitions    int
	Escalations    int
	MeltdownTime   time.Duration
	MeltdownActive bool
}

// NewStats starts a session ledger over the given band set.
func NewStats(set *band.Set) *Stats {
	return &Stats{
		start:    time.Now(),
		lastBand: band.Unknown,
		bands:    set.Bands(),
		tallies:  make([]bandTally, set.Len()),
		min:      math.Inf(1),
		max:      math.Inf(-1),
		peak:     math.Inf(-1),
	}
}

// AddReading records one classified level reading. Time since the previous
// reading is attributed to the band reported then.
func (s *Stats) AddReading(level float64, b band.Band) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastAt.IsZero() && s.lastBand.Pos >= 0 && s.lastBand.Pos < len(s.tallies) {
		gap := now.Sub(s.lastAt)
		if gap > maxReadingGap {
			gap = maxReadingGap
		}
		s.tallies[s.lastBand.Pos].time += gap
	}
	if b.Pos >= 0 && b.Pos < len(s.tallies) {
		s.tallies[b.Pos].readings++
	}
	s.lastAt = now
	s.lastBand = b

	s.levels = append(s.levels, level)
	s.sum += level
	if level < s.min {
		s.min = level
	}
	if level > s.max {
		s.max = level
	}
}

// NotePeak records the raw (unsmoothed) peak of a reading and whether the
// input clipped during it.
func (s *Stats) NotePeak(peak float64, clipped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if peak > s.peak {
		s.peak = peak
	}
	if clipped {
		s.clips++
	}
}

func (s *Stats) noteTransition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions++
}

func (s *Stats) noteEscalation(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalations++
	s.meltdownOpen = at
}

func (s *Stats) noteMeltdownEnd(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.meltdownOpen.IsZero() {
		s.meltdownTotal += at.Sub(s.meltdownOpen)
		s.meltdownOpen = time.Time{}
	}
}

// Snapshot copies the current state. A meltdown still open contributes its
// running time without being closed.
func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Start:        s.start,
		End:          now,
		Duration:     now.Sub(s.start),
		Readings:     len(s.levels),
		Clips:        s.clips,
		Transitions:  s.transitions,
		Escalations:  s.escalations,
		MeltdownTime: s.meltdownTotal,
	}

	if n := len(s.levels); n > 0 {
		snap.Min, snap.Max = s.min, s.max
		snap.Mean = s.sum / float64(n)
		if half := n / 2; half > 0 {
			snap.FirstHalfMean = mean(s.levels[:half])
			snap.SecondHalfMean = mean(s.levels[half:])
		} else {
			snap.FirstHalfMean = snap.Mean
			snap.SecondHalfMean = snap.Mean
		}
		snap.Peak = s.peak
		if math.IsInf(snap.Peak, -1) {
			snap.Peak = s.max
		}
	} else {
		snap.Min = math.NaN()
		snap.Mean = math.NaN()
		snap.Max = math.NaN()
		snap.FirstHalfMean = math.NaN()
		snap.SecondHalfMean = math.NaN()
		snap.Peak = math.NaN()
	}

	if !s.meltdownOpen.IsZero() {
		snap.MeltdownTime += now.Sub(s.meltdownOpen)
		snap.MeltdownActive = true
	}

	snap.Occupancy = make([]BandOccupancy, len(s.bands))
	for i, b := range s.bands {
		snap.Occupancy[i] = BandOccupancy{
			Band:     b.Name,
			Pos:      b.Pos,
			Time:     s.tallies[i].time,
			Readings: s.tallies[i].readings,
		}
	}
	return snap
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
