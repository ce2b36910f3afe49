package monitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linuxmatters/hushpuppy/internal/band"
)

// makeSet builds the standard four-band layout with fast transition
// durations so controller sequences settle within a few milliseconds:
// quiet [<75), lively [75,85), loud [85,95), rowdy [95,inf).
func makeSet(t *testing.T) *band.Set {
	t.Helper()
	s, err := band.NewSet([]band.Def{
		{Name: "quiet", UpTo: 75, Clip: band.Clip{Name: "dozing", Loop: true}},
		{Name: "lively", UpTo: 85, Clip: band.Clip{Name: "perky", Loop: true}},
		{Name: "loud", UpTo: 95, Clip: band.Clip{Name: "barking", Loop: true}},
		{Name: "rowdy", Clip: band.Clip{Name: "frantic", Loop: true}},
	}, map[int]band.Transition{
		0: {Clip: "stir", Duration: 5 * time.Millisecond},
		1: {Clip: "alert", Duration: 5 * time.Millisecond},
		2: {Clip: "frenzy", Duration: 5 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("building test set: %v", err)
	}
	return s
}

// makeScenarioSet builds the three-band layout S1 [<75), S2 [75,90),
// S3 [90,inf) used by the end-to-end sequence tests.
func makeScenarioSet(t *testing.T) *band.Set {
	t.Helper()
	s, err := band.NewSet([]band.Def{
		{Name: "S1", UpTo: 75, Clip: band.Clip{Name: "steady1", Loop: true}},
		{Name: "S2", UpTo: 90, Clip: band.Clip{Name: "steady2", Loop: true}},
		{Name: "S3", Clip: band.Clip{Name: "steady3", Loop: true}},
	}, map[int]band.Transition{
		0: {Clip: "rise12", Duration: 5 * time.Millisecond},
		1: {Clip: "rise23", Duration: 5 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("building scenario set: %v", err)
	}
	return s
}

func makeRamp(t *testing.T) *ColorRamp {
	t.Helper()
	r, err := NewColorRamp([]ColorStop{
		{At: 76, Hex: "#2E7D32"},
		{At: 85, Hex: "#F9A825"},
		{At: 95, Hex: "#EF6C00"},
		{At: 105, Hex: "#C62828"},
	})
	if err != nil {
		t.Fatalf("building test ramp: %v", err)
	}
	return r
}

// fakePlayer records loads in order. With a gate set, every Load blocks on
// a gate receive first, so tests control exactly when in-flight sequences
// make progress.
type fakePlayer struct {
	mu      sync.Mutex
	ready   bool
	loads   []LoadRequest
	failOn  map[string]error
	gate    chan struct{}
	waiting atomic.Int32
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{ready: true}
}

func (p *fakePlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *fakePlayer) Load(req LoadRequest) error {
	if p.gate != nil {
		p.waiting.Add(1)
		<-p.gate
		p.waiting.Add(-1)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads = append(p.loads, req)
	if err, ok := p.failOn[req.Clip]; ok {
		return err
	}
	return nil
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loads)
}

func (p *fakePlayer) snapshot() []LoadRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LoadRequest, len(p.loads))
	copy(out, p.loads)
	return out
}

func (p *fakePlayer) clips() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.loads))
	for i, l := range p.loads {
		names[i] = l.Clip
	}
	return names
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
