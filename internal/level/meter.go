// Package level produces calibrated loudness readings: a windowed RMS
// meter with attack/release smoothing, fed either by decoded audio files
// or by the synthetic demo script, both through gopxl/beep streamers.
package level

import (
	"context"
	"math"
	"time"

	"github.com/gopxl/beep"
)

const (
	// rmsWindowMS is the RMS integration window.
	rmsWindowMS = 50
	// emitEveryWindows is how many windows make one reading; two 50 ms
	// windows give ten readings per second.
	emitEveryWindows = 2
	// attackCoeff moves the smoothed level toward a louder target.
	attackCoeff = 0.6
	// releaseCoeff eases it toward a quieter target.
	releaseCoeff = 0.15
	// silenceFloorDB stands in for the log of digital silence.
	silenceFloorDB = -120.0
	// clipThreshold marks a sample as clipped.
	clipThreshold = 0.999
	// peakHold keeps a peak on the meter before decay sets in.
	peakHold = time.Second
	// peakDecayStep lowers a held peak each emission after the hold.
	peakDecayStep = 1.5
)

// Reading is one calibrated loudness measurement in display units.
type Reading struct {
	Level   float64       // smoothed display level
	Peak    float64       // held raw peak, display units
	Clipped bool          // a sample hit full scale this period
	Elapsed time.Duration // audio time since the stream started
}

// Metadata describes an audio stream.
type Metadata struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Source produces readings until its input ends or the context is
// cancelled.
type Source interface {
	Run(ctx context.Context, out chan<- Reading) error
	Metadata() Metadata
}

// Meter turns PCM into display readings: windowed RMS, dBFS conversion,
// calibration offset, smoothing with separate attack and release, and a
// peak hold. It is sample-driven and deterministic; pacing to the wall
// clock is the caller's business.
type Meter struct {
	sampleRate int
	offset     float64

	windowSamples int
	sumSquares    float64
	windowCount   int
	windowsDone   int

	level  float64
	primed bool

	rawPeak float64
	clipped bool

	heldPeak  float64
	holdUntil time.Duration

	samples int64
}

// NewMeter prepares a meter for the given sample rate and calibration.
func NewMeter(sampleRate int, cal Calibration) *Meter {
	windowSamples := sampleRate * rmsWindowMS / 1000
	if windowSamples < 1 {
		windowSamples = 1
	}
	return &Meter{
		sampleRate:    sampleRate,
		offset:        cal.Offset,
		windowSamples: windowSamples,
		heldPeak:      math.Inf(-1),
	}
}

// Push consumes a stereo buffer (one [2]float64 per frame, the beep
// layout) and returns the readings completed inside it.
func (m *Meter) Push(samples [][2]float64) []Reading {
	var out []Reading
	for _, frame := range samples {
		mono := (frame[0] + frame[1]) / 2
		m.sumSquares += mono * mono
		for _, ch := range frame {
			abs := math.Abs(ch)
			if abs > m.rawPeak {
				m.rawPeak = abs
			}
			if abs >= clipThreshold {
				m.clipped = true
			}
		}
		m.windowCount++
		m.samples++
		if m.windowCount == m.windowSamples {
			if r, ok := m.finishWindow(); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

func (m *Meter) finishWindow() (Reading, bool) {
	rms := math.Sqrt(m.sumSquares / float64(m.windowSamples))
	m.sumSquares = 0
	m.windowCount = 0

	target := displayLevel(rms, m.offset)
	switch {
	case !m.primed:
		m.level = target
		m.primed = true
	case target > m.level:
		m.level += (target - m.level) * attackCoeff
	default:
		m.level += (target - m.level) * releaseCoeff
	}

	m.windowsDone++
	if m.windowsDone < emitEveryWindows {
		return Reading{}, false
	}
	m.windowsDone = 0

	elapsed := time.Duration(m.samples) * time.Second / time.Duration(m.sampleRate)
	peak := displayLevel(m.rawPeak, m.offset)

	// Peak hold: a louder peak restarts the hold; once the hold lapses
	// the marker steps down toward the current peak.
	switch {
	case peak >= m.heldPeak:
		m.heldPeak = peak
		m.holdUntil = elapsed + peakHold
	case elapsed >= m.holdUntil:
		m.heldPeak -= peakDecayStep
		if m.heldPeak < peak {
			m.heldPeak = peak
		}
	}

	r := Reading{
		Level:   m.level,
		Peak:    m.heldPeak,
		Clipped: m.clipped,
		Elapsed: elapsed,
	}
	m.rawPeak = 0
	m.clipped = false
	return r, true
}

// displayLevel converts a linear amplitude to calibrated display units.
func displayLevel(linear, offset float64) float64 {
	if linear <= 0 {
		return silenceFloorDB + offset
	}
	db := 20 * math.Log10(linear)
	if db < silenceFloorDB {
		db = silenceFloorDB
	}
	return db + offset
}

// pump streams the whole source through the meter. With pace set,
// emissions are held back to the wall clock so a decode that outruns real
// time still reads like a live session.
func pump(ctx context.Context, st beep.Streamer, m *Meter, out chan<- Reading, pace bool) error {
	buf := make([][2]float64, 512)
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, ok := st.Stream(buf)
		for _, r := range m.Push(buf[:n]) {
			if pace {
				if wait := r.Elapsed - time.Since(start); wait > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(wait):
					}
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- r:
			}
		}
		if !ok {
			return st.Err()
		}
	}
}
