package level

import (
	"math"
	"sort"
	"time"

	"github.com/gopxl/beep"
)

// Calibration maps raw dBFS onto the display scale the bands are written
// in: display = dBFS + Offset.
type Calibration struct {
	Offset float64
	Auto   bool
}

// DefaultCalibrationOffset places -25 dBFS at 75 display units, the lower
// edge of the default lively band.
const DefaultCalibrationOffset = 100.0

// Auto-calibration reference points, in dBFS of the lead-in median. A hot
// capture chain reads high; the tiers push the display offset down so the
// default bands still mean something.
const (
	// calibrationLeadIn is how much audio the lead-in pass measures.
	calibrationLeadIn = 5 * time.Second
	// hotChainDB: compressed or driven input, medians up near -12.
	hotChainDB = -15.0
	// typicalChainDB: reasonable mic gain staging.
	typicalChainDB = -30.0
	// quietChainDB: conservative gain or a distant mic.
	quietChainDB = -45.0
)

// tuneCalibration picks a display offset from the median windowed dBFS of
// the lead-in.
// Strategy: park the median in the middle of the default lively band (80
// display units) and clamp per tier, so a quiet chain does not pin the
// dog asleep and a hot one does not start him frantic.
func tuneCalibration(medianDB float64) float64 {
	med := sanitizeFloat(medianDB, typicalChainDB)
	switch {
	case med >= hotChainDB:
		// Hot chain: medians at -15 and above all land on 80 - (-15).
		return 95
	case med >= typicalChainDB:
		// Typical chain: follow the median directly.
		return clampFloat(80-med, 95, 110)
	case med >= quietChainDB:
		// Quiet chain: still follow it, with more headroom allowed.
		return clampFloat(80-med, 110, 125)
	default:
		// Near-silent lead-in: do not chase it, cap the boost.
		return 125
	}
}

// measureLeadIn runs up to calibrationLeadIn of audio through a windowed
// dBFS measurement and returns the per-window levels.
func measureLeadIn(st beep.Streamer, format beep.Format) []float64 {
	windowSamples := int(format.SampleRate) * rmsWindowMS / 1000
	if windowSamples < 1 {
		windowSamples = 1
	}
	limit := format.SampleRate.N(calibrationLeadIn)

	buf := make([][2]float64, 512)
	var (
		levels []float64
		sum    float64
		count  int
		total  int
	)
	for total < limit {
		n, ok := st.Stream(buf)
		frames := buf[:n]
		if total+n > limit {
			frames = buf[:limit-total]
		}
		for _, frame := range frames {
			mono := (frame[0] + frame[1]) / 2
			sum += mono * mono
			count++
			if count == windowSamples {
				rms := math.Sqrt(sum / float64(count))
				if rms > 0 {
					levels = append(levels, math.Max(20*math.Log10(rms), silenceFloorDB))
				} else {
					levels = append(levels, silenceFloorDB)
				}
				sum, count = 0, 0
			}
		}
		total += n
		if !ok {
			break
		}
	}
	return levels
}

// medianDB returns the median of the collected window levels, or the
// typical-chain reference when there are none.
func medianDB(values []float64) float64 {
	if len(values) == 0 {
		return typicalChainDB
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sanitizeFloat(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
