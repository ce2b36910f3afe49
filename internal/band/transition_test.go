package band

import (
	"testing"
	"time"
)

func TestDirection(t *testing.T) {
	s := testSet(t)
	quiet, _ := s.ByName("quiet")
	lively, _ := s.ByName("lively")
	rowdy, _ := s.ByName("rowdy")

	tests := []struct {
		desc string
		prev Band
		next Band
		want Direction
	}{
		{"adjacent up", quiet, lively, Up},
		{"adjacent down", lively, quiet, Down},
		{"jump up", quiet, rowdy, Up},
		{"jump down", rowdy, quiet, Down},
		{"same band", lively, lively, Steady},
		{"unknown prev", Unknown, lively, Steady},
		{"unknown next", lively, Unknown, Steady},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := s.Direction(tt.prev, tt.next); got != tt.want {
				t.Errorf("Direction(%q, %q) = %v, want %v", tt.prev.Name, tt.next.Name, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s := testSet(t)
	quiet, _ := s.ByName("quiet")
	lively, _ := s.ByName("lively")
	loud, _ := s.ByName("loud")
	rowdy, _ := s.ByName("rowdy")

	t.Run("nil cases", func(t *testing.T) {
		tests := []struct {
			desc string
			prev Band
			next Band
		}{
			{"same band", lively, lively},
			{"unknown prev", Unknown, lively},
			{"unknown next", lively, Unknown},
			{"non-adjacent up", quiet, loud},
			{"non-adjacent down", rowdy, quiet},
		}
		for _, tt := range tests {
			t.Run(tt.desc, func(t *testing.T) {
				if p := s.Resolve(tt.prev, tt.next); p != nil {
					t.Errorf("Resolve(%q, %q) = %+v, want nil", tt.prev.Name, tt.next.Name, p)
				}
			})
		}
	})

	t.Run("forward", func(t *testing.T) {
		p := s.Resolve(quiet, lively)
		if p == nil {
			t.Fatal("Resolve(quiet, lively) = nil")
		}
		if p.Clip != "stir" || p.Reverse {
			t.Errorf("got clip %q reverse %v, want stir forward", p.Clip, p.Reverse)
		}
		if p.Duration != 1200*time.Millisecond {
			t.Errorf("Duration = %v, want 1.2s", p.Duration)
		}
	})

	t.Run("reverse uses the same clip", func(t *testing.T) {
		p := s.Resolve(lively, quiet)
		if p == nil {
			t.Fatal("Resolve(lively, quiet) = nil")
		}
		if p.Clip != "stir" || !p.Reverse {
			t.Errorf("got clip %q reverse %v, want stir reverse", p.Clip, p.Reverse)
		}
	})

	t.Run("duration fallback", func(t *testing.T) {
		p := s.Resolve(loud, rowdy)
		if p == nil {
			t.Fatal("Resolve(loud, rowdy) = nil")
		}
		if p.Duration != DefaultTransitionDuration {
			t.Errorf("Duration = %v, want default %v", p.Duration, DefaultTransitionDuration)
		}
	})

	t.Run("missing descriptor", func(t *testing.T) {
		bare, err := NewSet([]Def{
			{Name: "a", UpTo: 10, Clip: Clip{Name: "x", Loop: true}},
			{Name: "b", Clip: Clip{Name: "y", Loop: true}},
		}, nil)
		if err != nil {
			t.Fatalf("NewSet: %v", err)
		}
		a, _ := bare.ByName("a")
		b, _ := bare.ByName("b")
		if p := bare.Resolve(a, b); p != nil {
			t.Errorf("Resolve without descriptor = %+v, want nil", p)
		}
	})
}

func TestPath(t *testing.T) {
	s := testSet(t)
	quiet, _ := s.ByName("quiet")
	lively, _ := s.ByName("lively")
	rowdy, _ := s.ByName("rowdy")

	tests := []struct {
		desc string
		prev Band
		next Band
		want []string
	}{
		{"same band", lively, lively, []string{"lively"}},
		{"adjacent up", quiet, lively, []string{"quiet", "lively"}},
		{"full climb", quiet, rowdy, []string{"quiet", "lively", "loud", "rowdy"}},
		{"full descent", rowdy, quiet, []string{"rowdy", "loud", "lively", "quiet"}},
		{"unknown prev collapses to destination", Unknown, rowdy, []string{"rowdy"}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			path := s.Path(tt.prev, tt.next)
			if len(path) != len(tt.want) {
				t.Fatalf("Path(%q, %q) has %d steps, want %d", tt.prev.Name, tt.next.Name, len(path), len(tt.want))
			}
			for i, name := range tt.want {
				if path[i].Name != name {
					t.Errorf("step %d = %q, want %q", i, path[i].Name, name)
				}
			}
		})
	}

	// Structural properties: endpoints, adjacency of each consecutive pair,
	// and length tied to the position distance.
	t.Run("properties", func(t *testing.T) {
		bands := s.Bands()
		for _, from := range bands {
			for _, to := range bands {
				path := s.Path(from, to)
				if path[0].Pos != from.Pos {
					t.Errorf("Path(%q, %q) starts at %q", from.Name, to.Name, path[0].Name)
				}
				if path[len(path)-1].Pos != to.Pos {
					t.Errorf("Path(%q, %q) ends at %q", from.Name, to.Name, path[len(path)-1].Name)
				}
				wantLen := abs(from.Pos-to.Pos) + 1
				if len(path) != wantLen {
					t.Errorf("Path(%q, %q) has %d steps, want %d", from.Name, to.Name, len(path), wantLen)
				}
				for i := 0; i+1 < len(path); i++ {
					if abs(path[i].Pos-path[i+1].Pos) != 1 {
						t.Errorf("Path(%q, %q) steps %q -> %q are not adjacent",
							from.Name, to.Name, path[i].Name, path[i+1].Name)
					}
				}
			}
		}
	})
}
