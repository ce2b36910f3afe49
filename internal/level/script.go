package level

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
)

// Segment is one stretch of the demo script: glide to a target display
// level and hold it for the duration.
type Segment struct {
	Duration time.Duration
	Target   float64 // display units
}

const (
	// demoSampleRate keeps the synthetic session cheap to mix.
	demoSampleRate = beep.SampleRate(44100)
	// demoToneHz is the sine the demo shapes. 220 Hz divides the RMS
	// window into whole cycles, so metered levels come out exact.
	demoToneHz = 220.0
	// demoGlide is how long each segment takes to reach its target, so
	// band changes read as movement rather than steps.
	demoGlide = 200 * time.Millisecond
)

// DefaultScript walks the dog through every band: a calm start, a lively
// middle, a loud stretch, a rowdy dwell long past the escalation timeout,
// then back down to the exit band.
func DefaultScript() []Segment {
	return []Segment{
		{8 * time.Second, 60},
		{6 * time.Second, 80},
		{6 * time.Second, 90},
		{14 * time.Second, 96},
		{8 * time.Second, 90},
		{8 * time.Second, 60},
	}
}

// ScriptSource synthesises a session instead of replaying one: sine tones
// shaped to the script's targets, run through the same meter as file
// playback.
type ScriptSource struct {
	script []Segment
	cal    Calibration
	listen bool
	meter  *Meter
	meta   Metadata
}

// NewScriptSource validates the script; an empty one means DefaultScript.
func NewScriptSource(script []Segment, cal Calibration, listen bool) (*ScriptSource, error) {
	if len(script) == 0 {
		script = DefaultScript()
	}
	var total time.Duration
	for i, seg := range script {
		if seg.Duration <= 0 {
			return nil, fmt.Errorf("script segment %d has no duration", i)
		}
		total += seg.Duration
	}
	return &ScriptSource{
		script: script,
		cal:    cal,
		listen: listen,
		meter:  NewMeter(int(demoSampleRate), cal),
		meta: Metadata{
			SampleRate: int(demoSampleRate),
			Channels:   2,
			Duration:   total,
		},
	}, nil
}

// Metadata reports the synthetic stream's shape.
func (s *ScriptSource) Metadata() Metadata { return s.meta }

// Run synthesises the script until it ends or ctx is cancelled.
func (s *ScriptSource) Run(ctx context.Context, out chan<- Reading) error {
	st, err := s.streamer()
	if err != nil {
		return err
	}
	if s.listen {
		format := beep.Format{SampleRate: demoSampleRate, NumChannels: 2, Precision: 2}
		return playAndMeter(ctx, st, format, s.meter, out)
	}
	return pump(ctx, st, s.meter, out, true)
}

// streamer builds the script as a sequence of gain-enveloped sine takes.
func (s *ScriptSource) streamer() (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(s.script))
	gain := 0.0
	for _, seg := range s.script {
		sine, err := generators.SineTone(demoSampleRate, demoToneHz)
		if err != nil {
			return nil, fmt.Errorf("building demo tone: %w", err)
		}
		target := amplitudeFor(seg.Target, s.cal.Offset)
		env := &envelope{
			src:    sine,
			gain:   gain,
			target: target,
			step:   (target - gain) / float64(demoSampleRate.N(demoGlide)),
		}
		parts = append(parts, beep.Take(demoSampleRate.N(seg.Duration), env))
		gain = target
	}
	return beep.Seq(parts...), nil
}

// amplitudeFor inverts the meter math: the sine amplitude whose RMS reads
// as the wanted display level, clamped to full scale.
func amplitudeFor(display, offset float64) float64 {
	amp := math.Sqrt2 * math.Pow(10, (display-offset)/20)
	return clampFloat(amp, 0, 1)
}

// envelope scales a streamer by a gain that glides linearly toward a
// target, one step per sample.
type envelope struct {
	src    beep.Streamer
	gain   float64
	target float64
	step   float64
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.src.Stream(samples)
	for i := 0; i < n; i++ {
		if e.gain != e.target && e.step != 0 {
			e.gain += e.step
			if (e.step > 0 && e.gain > e.target) || (e.step < 0 && e.gain < e.target) {
				e.gain = e.target
			}
		}
		samples[i][0] *= e.gain
		samples[i][1] *= e.gain
	}
	return n, ok
}

func (e *envelope) Err() error { return e.src.Err() }
