package ui

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/hushpuppy/internal/monitor"
)

// MascotPlayer hands clip loads from the controller to the running UI.
// It reports not-ready until the program has actually started, so early
// readings tint the background without queueing animations, and it
// rejects clip names the library does not know so a config typo cannot
// fail silently.
type MascotPlayer struct {
	lib     *Library
	events  chan<- tea.Msg
	started *atomic.Bool
}

// NewMascotPlayer wires a player to the model's event queue.
func NewMascotPlayer(lib *Library, m Model) *MascotPlayer {
	return &MascotPlayer{
		lib:     lib,
		events:  m.Events,
		started: m.Started(),
	}
}

// Ready reports whether the UI is running and accepting clips.
func (p *MascotPlayer) Ready() bool { return p.started.Load() }

// Load queues a clip swap. It never blocks: if the UI has stopped
// draining its queue the load is refused instead of stalling playback.
func (p *MascotPlayer) Load(req monitor.LoadRequest) error {
	if _, ok := p.lib.Get(req.Clip); !ok {
		return fmt.Errorf("unknown clip %q", req.Clip)
	}
	msg := LoadClipMsg{
		Clip:     req.Clip,
		Autoplay: req.Autoplay,
		Loop:     req.Loop,
		Reverse:  req.Reverse,
	}
	select {
	case p.events <- msg:
		return nil
	default:
		return fmt.Errorf("event queue full, dropping clip %q", req.Clip)
	}
}
