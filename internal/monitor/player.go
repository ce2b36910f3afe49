package monitor

// Player is the animation capability the controller drives. Ready must be
// checked before any call; Load may fail, in which case the controller logs
// the failure and moves on.
type Player interface {
	Ready() bool
	Load(req LoadRequest) error
}

// LoadRequest names a clip and how to play it. Transitions load with
// Loop=false and a direction; steady clips load looping forward.
type LoadRequest struct {
	Clip     string
	Autoplay bool
	Loop     bool
	Reverse  bool
}

// NopPlayer absorbs every load. It backs headless runs, where the session
// still wants the full state machine (stats, escalation) without a mascot.
type NopPlayer struct {
	Logf func(format string, args ...interface{})
}

func (p NopPlayer) Ready() bool { return true }

func (p NopPlayer) Load(req LoadRequest) error {
	if p.Logf != nil {
		p.Logf("player: load %s (loop=%v reverse=%v)", req.Clip, req.Loop, req.Reverse)
	}
	return nil
}
