// Package ui provides the Bubbletea terminal user interface for hushpuppy:
// the animated mascot, the level meter, and the meltdown banner.
package ui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// tickInterval paces frame advancement and the elapsed display.
const tickInterval = 100 * time.Millisecond

// tickMsg is sent for animation timing.
type tickMsg time.Time

// Model is the Bubbletea model for a monitoring session. Everything it
// shows arrives through Events; the render loop never reaches into the
// monitor.
type Model struct {
	// Events carries clip loads, readings, background changes, and the
	// session end into the update loop.
	Events chan tea.Msg

	lib     *Library
	logf    func(format string, args ...interface{})
	started *atomic.Bool

	// Playback state for the current clip.
	clip    Clip
	playing bool
	loop    bool
	reverse bool
	frame   int
	acc     time.Duration

	// Last session state seen.
	background  string
	level       float64
	peak        float64
	clipped     bool
	elapsed     time.Duration
	bandName    string
	meltdown    bool
	haveReading bool

	// Completion state.
	Done bool
	Err  error

	// Terminal dimensions.
	Width  int
	Height int
}

// NewModel creates a session model around the given clip library.
func NewModel(lib *Library, logf func(string, ...interface{})) Model {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return Model{
		Events:  make(chan tea.Msg, 100), // Buffered channel
		lib:     lib,
		logf:    logf,
		started: &atomic.Bool{},
	}
}

// Started exposes the flag the mascot player polls for readiness. It
// flips when the program runs Init.
func (m Model) Started() *atomic.Bool { return m.started }

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	m.started.Store(true)
	return tea.Batch(waitForEvent(m.Events), tickCmd())
}

// tickCmd returns a command that ticks the animation clock.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent relays the next session event into the update loop.
func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.advance(tickInterval)
		return m, tickCmd()

	case LoadClipMsg:
		clip, ok := m.lib.Get(msg.Clip)
		if !ok {
			// The player validates names, so this is a programming
			// error worth surfacing in the debug log.
			m.logf("ui: dropping unknown clip %q", msg.Clip)
			return m, waitForEvent(m.Events)
		}
		m.clip = clip
		m.playing = msg.Autoplay
		m.loop = msg.Loop
		m.reverse = msg.Reverse
		m.frame = 0
		if msg.Reverse {
			m.frame = len(clip.Frames) - 1
		}
		m.acc = 0
		return m, waitForEvent(m.Events)

	case ReadingMsg:
		m.level = msg.Level
		m.peak = msg.Peak
		m.clipped = msg.Clipped
		m.elapsed = msg.Elapsed
		m.bandName = msg.Band
		m.meltdown = msg.Meltdown
		m.haveReading = true
		return m, waitForEvent(m.Events)

	case BackgroundMsg:
		m.background = msg.Hex
		return m, waitForEvent(m.Events)

	case SessionEndMsg:
		m.Err = msg.Err
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// advance accumulates tick time and steps the clip's frames, carrying the
// remainder so intervals that are not tick multiples still average out.
func (m *Model) advance(dt time.Duration) {
	if !m.playing || len(m.clip.Frames) == 0 || m.clip.Interval <= 0 {
		return
	}
	m.acc += dt
	for m.acc >= m.clip.Interval {
		m.acc -= m.clip.Interval
		m.step()
	}
}

// step moves one frame in the playback direction. Non-looping clips hold
// their final frame: the last one forward, the first one in reverse.
func (m *Model) step() {
	n := len(m.clip.Frames)
	if n <= 1 {
		return
	}
	if m.reverse {
		switch {
		case m.frame > 0:
			m.frame--
		case m.loop:
			m.frame = n - 1
		}
		return
	}
	switch {
	case m.frame < n-1:
		m.frame++
	case m.loop:
		m.frame = 0
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}
	if m.Done {
		return renderGoodbye(m)
	}
	return renderSessionView(m)
}
