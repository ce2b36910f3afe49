package ui

import "time"

// LoadClipMsg swaps the mascot's animation clip.
type LoadClipMsg struct {
	Clip     string
	Autoplay bool
	Loop     bool
	Reverse  bool
}

// ReadingMsg carries one metered reading plus its classification.
type ReadingMsg struct {
	Level    float64
	Peak     float64
	Clipped  bool
	Elapsed  time.Duration
	Band     string
	Meltdown bool
}

// BackgroundMsg retints the mascot's surroundings.
type BackgroundMsg struct {
	Hex string
}

// SessionEndMsg tells the UI the source has finished.
type SessionEndMsg struct {
	Err error
}
