// Package config loads the YAML configuration file: band thresholds,
// transition clips, escalation policy, the background colour ramp, and
// meter calibration. Everything ships with a default, so a file only
// needs the sections it wants to change.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/hushpuppy/internal/band"
	"github.com/linuxmatters/hushpuppy/internal/level"
	"github.com/linuxmatters/hushpuppy/internal/monitor"
)

// Config mirrors the YAML file.
type Config struct {
	Bands       []BandConfig       `yaml:"bands"`
	Transitions []TransitionConfig `yaml:"transitions"`
	Escalation  EscalationConfig   `yaml:"escalation"`
	Colors      []ColorConfig      `yaml:"colors"`
	Calibration CalibrationConfig  `yaml:"calibration"`
}

// BandConfig declares one band, quietest first. Max is the exclusive
// upper edge in display units; the last band leaves it unset.
type BandConfig struct {
	Name string   `yaml:"name"`
	Max  *float64 `yaml:"max,omitempty"`
	Clip string   `yaml:"clip"`
}

// TransitionConfig names the clip bridging an adjacent band pair, in
// either order.
type TransitionConfig struct {
	Between    []string `yaml:"between"`
	Clip       string   `yaml:"clip"`
	DurationMS int      `yaml:"duration_ms"`
}

// EscalationConfig tunes the sustained-state tracker.
type EscalationConfig struct {
	TimeoutMS int    `yaml:"timeout_ms"`
	ExitBand  string `yaml:"exit_band"`
}

// ColorConfig pins a background colour to a display level.
type ColorConfig struct {
	At  float64 `yaml:"at"`
	Hex string  `yaml:"hex"`
}

// CalibrationConfig maps dBFS onto display units. A zero offset means the
// default scale; auto measures the lead-in instead.
type CalibrationConfig struct {
	Offset float64 `yaml:"offset"`
	Auto   bool    `yaml:"auto"`
}

// Default returns the stock configuration: four bands from dozing to
// frantic, the three bridging clips, a ten second meltdown fuse, and a
// green-to-red background ramp.
func Default() *Config {
	return &Config{
		Bands: []BandConfig{
			{Name: "quiet", Max: threshold(75), Clip: "dozing"},
			{Name: "lively", Max: threshold(85), Clip: "perky"},
			{Name: "loud", Max: threshold(95), Clip: "barking"},
			{Name: "rowdy", Clip: "frantic"},
		},
		Transitions: []TransitionConfig{
			{Between: []string{"quiet", "lively"}, Clip: "stir", DurationMS: 1200},
			{Between: []string{"lively", "loud"}, Clip: "alert", DurationMS: 1500},
			{Between: []string{"loud", "rowdy"}, Clip: "frenzy", DurationMS: 2000},
		},
		Escalation: EscalationConfig{TimeoutMS: 10000, ExitBand: "loud"},
		Colors: []ColorConfig{
			{At: 76, Hex: "#2E7D32"},
			{At: 85, Hex: "#F9A825"},
			{At: 95, Hex: "#EF6C00"},
			{At: 105, Hex: "#C62828"},
		},
		Calibration: CalibrationConfig{Offset: level.DefaultCalibrationOffset},
	}
}

func threshold(v float64) *float64 { return &v }

// Load reads a YAML config and validates it. An empty path returns the
// defaults; sections the file leaves out keep theirs.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.merge(&file)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// merge overlays the sections a file actually set onto the defaults.
func (c *Config) merge(file *Config) {
	if len(file.Bands) > 0 {
		c.Bands = file.Bands
	}
	if len(file.Transitions) > 0 {
		c.Transitions = file.Transitions
	}
	if file.Escalation.TimeoutMS > 0 {
		c.Escalation.TimeoutMS = file.Escalation.TimeoutMS
	}
	if file.Escalation.ExitBand != "" {
		c.Escalation.ExitBand = file.Escalation.ExitBand
	}
	if len(file.Colors) > 0 {
		c.Colors = file.Colors
	}
	if file.Calibration.Offset != 0 {
		c.Calibration.Offset = file.Calibration.Offset
	}
	if file.Calibration.Auto {
		c.Calibration.Auto = true
	}
}

// Validate checks cross-field consistency before anything gets built.
func (c *Config) Validate() error {
	if len(c.Bands) < 2 {
		return fmt.Errorf("need at least two bands, got %d", len(c.Bands))
	}
	names := make(map[string]int, len(c.Bands))
	for i, b := range c.Bands {
		if b.Name == "" {
			return fmt.Errorf("band %d has no name", i)
		}
		if _, dup := names[b.Name]; dup {
			return fmt.Errorf("duplicate band %q", b.Name)
		}
		names[b.Name] = i
		if b.Clip == "" {
			return fmt.Errorf("band %q has no clip", b.Name)
		}
		if i == len(c.Bands)-1 {
			if b.Max != nil {
				return fmt.Errorf("last band %q must leave max unset", b.Name)
			}
			continue
		}
		if b.Max == nil {
			return fmt.Errorf("band %q needs a max (only the last band is unbounded)", b.Name)
		}
		if i > 0 && *b.Max <= *c.Bands[i-1].Max {
			return fmt.Errorf("band thresholds must ascend: %q at %.1f", b.Name, *b.Max)
		}
	}

	seen := make(map[int]bool, len(c.Transitions))
	for i, tr := range c.Transitions {
		lo, hi, err := c.transitionPair(tr)
		if err != nil {
			return fmt.Errorf("transition %d: %w", i, err)
		}
		if seen[lo] {
			return fmt.Errorf("duplicate transition between %q and %q", c.Bands[lo].Name, c.Bands[hi].Name)
		}
		seen[lo] = true
		if tr.Clip == "" {
			return fmt.Errorf("transition between %q and %q has no clip", c.Bands[lo].Name, c.Bands[hi].Name)
		}
		if tr.DurationMS < 0 {
			return fmt.Errorf("transition between %q and %q has a negative duration", c.Bands[lo].Name, c.Bands[hi].Name)
		}
	}

	if c.Escalation.TimeoutMS < 0 {
		return fmt.Errorf("escalation timeout must not be negative")
	}
	if exit := c.Escalation.ExitBand; exit != "" {
		pos, ok := names[exit]
		if !ok {
			return fmt.Errorf("escalation exit band %q is not a band", exit)
		}
		if pos >= len(c.Bands)-1 {
			return fmt.Errorf("escalation exit band %q must sit below the top band", exit)
		}
	}

	if len(c.Colors) < 2 {
		return fmt.Errorf("need at least two colour stops, got %d", len(c.Colors))
	}
	for i := 1; i < len(c.Colors); i++ {
		if c.Colors[i].At <= c.Colors[i-1].At {
			return fmt.Errorf("colour stops must ascend: %.1f after %.1f", c.Colors[i].At, c.Colors[i-1].At)
		}
	}
	return nil
}

// transitionPair resolves a Between pair to ascending band indexes.
func (c *Config) transitionPair(tr TransitionConfig) (lo, hi int, err error) {
	if len(tr.Between) != 2 {
		return 0, 0, fmt.Errorf("must name exactly two bands, got %d", len(tr.Between))
	}
	idx := make(map[string]int, len(c.Bands))
	for i, b := range c.Bands {
		idx[b.Name] = i
	}
	lo, okLo := idx[tr.Between[0]]
	hi, okHi := idx[tr.Between[1]]
	if !okLo || !okHi {
		return 0, 0, fmt.Errorf("names unknown band in %v", tr.Between)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo != 1 {
		return 0, 0, fmt.Errorf("%q and %q are not adjacent", tr.Between[0], tr.Between[1])
	}
	return lo, hi, nil
}

// BandSet compiles the band and transition tables. Steady clips loop.
func (c *Config) BandSet() (*band.Set, error) {
	defs := make([]band.Def, len(c.Bands))
	for i, b := range c.Bands {
		d := band.Def{Name: b.Name, Clip: band.Clip{Name: b.Clip, Loop: true}}
		if b.Max != nil {
			d.UpTo = *b.Max
		}
		defs[i] = d
	}

	transitions := make(map[int]band.Transition, len(c.Transitions))
	for i, tr := range c.Transitions {
		lo, _, err := c.transitionPair(tr)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
		transitions[lo] = band.Transition{
			Clip:     tr.Clip,
			Duration: time.Duration(tr.DurationMS) * time.Millisecond,
		}
	}
	return band.NewSet(defs, transitions)
}

// Ramp compiles the background colour keyframes.
func (c *Config) Ramp() (*monitor.ColorRamp, error) {
	stops := make([]monitor.ColorStop, len(c.Colors))
	for i, s := range c.Colors {
		stops[i] = monitor.ColorStop{At: s.At, Hex: s.Hex}
	}
	return monitor.NewColorRamp(stops)
}

// EscalationPolicy converts the escalation section.
func (c *Config) EscalationPolicy() monitor.EscalationPolicy {
	return monitor.EscalationPolicy{
		Timeout:  time.Duration(c.Escalation.TimeoutMS) * time.Millisecond,
		ExitBand: c.Escalation.ExitBand,
	}
}

// MeterCalibration converts the calibration section. A zero offset means
// the default scale.
func (c *Config) MeterCalibration() level.Calibration {
	cal := level.Calibration{Offset: c.Calibration.Offset, Auto: c.Calibration.Auto}
	if cal.Offset == 0 {
		cal.Offset = level.DefaultCalibrationOffset
	}
	return cal
}
