package level

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// FileSource replays a recorded session: it decodes WAV, MP3, or OGG
// Vorbis through beep, meters the samples, and paces readings at the
// file's real-time rate. With listen set it also plays through the
// speakers, and the speaker pull paces everything instead.
type FileSource struct {
	path   string
	listen bool
	logf   func(format string, args ...interface{})

	streamer beep.StreamSeekCloser
	format   beep.Format
	meter    *Meter
	meta     Metadata
}

// OpenFile decodes the file header, runs the auto-calibration lead-in
// when asked, and leaves the stream positioned at the start.
func OpenFile(path string, cal Calibration, listen bool, logf func(string, ...interface{})) (*FileSource, error) {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	streamer, format, err := decodeAudio(path)
	if err != nil {
		return nil, err
	}

	if cal.Auto {
		levels := measureLeadIn(streamer, format)
		median := medianDB(levels)
		cal.Offset = tuneCalibration(median)
		logf("level: lead-in median %.1f dBFS over %d windows, offset %.1f", median, len(levels), cal.Offset)
		if err := streamer.Seek(0); err != nil {
			streamer.Close()
			return nil, fmt.Errorf("rewinding after calibration lead-in: %w", err)
		}
	}

	return &FileSource{
		path:     path,
		listen:   listen,
		logf:     logf,
		streamer: streamer,
		format:   format,
		meter:    NewMeter(int(format.SampleRate), cal),
		meta: Metadata{
			SampleRate: int(format.SampleRate),
			Channels:   format.NumChannels,
			Duration:   format.SampleRate.D(streamer.Len()),
		},
	}, nil
}

// Metadata reports the decoded stream's shape.
func (s *FileSource) Metadata() Metadata { return s.meta }

// Name returns the base name of the underlying file.
func (s *FileSource) Name() string { return filepath.Base(s.path) }

// Run meters the file until it ends or ctx is cancelled.
func (s *FileSource) Run(ctx context.Context, out chan<- Reading) error {
	defer s.streamer.Close()
	if s.listen {
		return playAndMeter(ctx, s.streamer, s.format, s.meter, out)
	}
	return pump(ctx, s.streamer, s.meter, out, true)
}

// decodeAudio opens path with the decoder its extension calls for.
func decodeAudio(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("opening audio file: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q (want .wav, .mp3, or .ogg)", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}

// playAndMeter routes the stream through the speakers; the speaker's pull
// cadence paces the readings.
func playAndMeter(ctx context.Context, st beep.Streamer, format beep.Format, m *Meter, out chan<- Reading) error {
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("initialising speaker: %w", err)
	}
	defer speaker.Clear()

	done := make(chan struct{})
	tap := &meterTap{ctx: ctx, src: st, meter: m, out: out}
	speaker.Play(beep.Seq(tap, beep.Callback(func() { close(done) })))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return st.Err()
	}
}

// meterTap passes samples through unchanged while feeding the meter.
// Readings are sent best-effort: the speaker goroutine must never block
// on a slow consumer.
type meterTap struct {
	ctx   context.Context
	src   beep.Streamer
	meter *Meter
	out   chan<- Reading
}

func (t *meterTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.src.Stream(samples)
	for _, r := range t.meter.Push(samples[:n]) {
		select {
		case <-t.ctx.Done():
		case t.out <- r:
		default:
		}
	}
	return n, ok
}

func (t *meterTap) Err() error { return t.src.Err() }
