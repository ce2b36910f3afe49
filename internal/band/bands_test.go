package band

import (
	"math"
	"testing"
	"time"
)

// testSet builds the four-band layout used across these tests:
// quiet [<75), lively [75,85), loud [85,95), rowdy [95,inf).
// The loud/rowdy transition has no duration so fallback paths get exercised.
func testSet(t *testing.T) *Set {
	t.Helper()
	s, err := NewSet([]Def{
		{Name: "quiet", UpTo: 75, Clip: Clip{Name: "dozing", Loop: true}},
		{Name: "lively", UpTo: 85, Clip: Clip{Name: "perky", Loop: true}},
		{Name: "loud", UpTo: 95, Clip: Clip{Name: "barking", Loop: true}},
		{Name: "rowdy", Clip: Clip{Name: "frantic", Loop: true}},
	}, map[int]Transition{
		0: {Clip: "stir", Duration: 1200 * time.Millisecond},
		1: {Clip: "alert", Duration: 1500 * time.Millisecond},
		2: {Clip: "frenzy"},
	})
	if err != nil {
		t.Fatalf("building test set: %v", err)
	}
	return s
}

func TestNewSetValidation(t *testing.T) {
	okClip := Clip{Name: "dozing", Loop: true}

	tests := []struct {
		desc        string
		defs        []Def
		transitions map[int]Transition
		wantErr     bool
	}{
		{
			desc:    "empty set rejected",
			defs:    nil,
			wantErr: true,
		},
		{
			desc:    "single band allowed",
			defs:    []Def{{Name: "only", Clip: okClip}},
			wantErr: false,
		},
		{
			desc: "missing name rejected",
			defs: []Def{
				{Name: "", UpTo: 10, Clip: okClip},
				{Name: "b", Clip: okClip},
			},
			wantErr: true,
		},
		{
			desc: "duplicate name rejected",
			defs: []Def{
				{Name: "a", UpTo: 10, Clip: okClip},
				{Name: "a", Clip: okClip},
			},
			wantErr: true,
		},
		{
			desc: "missing clip rejected",
			defs: []Def{
				{Name: "a", UpTo: 10},
				{Name: "b", Clip: okClip},
			},
			wantErr: true,
		},
		{
			desc: "descending thresholds rejected",
			defs: []Def{
				{Name: "a", UpTo: 20, Clip: okClip},
				{Name: "b", UpTo: 10, Clip: okClip},
				{Name: "c", Clip: okClip},
			},
			wantErr: true,
		},
		{
			desc: "equal thresholds rejected",
			defs: []Def{
				{Name: "a", UpTo: 10, Clip: okClip},
				{Name: "b", UpTo: 10, Clip: okClip},
				{Name: "c", Clip: okClip},
			},
			wantErr: true,
		},
		{
			desc: "non-finite threshold rejected",
			defs: []Def{
				{Name: "a", UpTo: math.NaN(), Clip: okClip},
				{Name: "b", Clip: okClip},
			},
			wantErr: true,
		},
		{
			desc: "transition key outside adjacent pairs rejected",
			defs: []Def{
				{Name: "a", UpTo: 10, Clip: okClip},
				{Name: "b", Clip: okClip},
			},
			transitions: map[int]Transition{1: {Clip: "x"}},
			wantErr:     true,
		},
		{
			desc: "transition without clip rejected",
			defs: []Def{
				{Name: "a", UpTo: 10, Clip: okClip},
				{Name: "b", Clip: okClip},
			},
			transitions: map[int]Transition{0: {}},
			wantErr:     true,
		},
		{
			desc: "valid two-band set",
			defs: []Def{
				{Name: "a", UpTo: 10, Clip: okClip},
				{Name: "b", Clip: okClip},
			},
			transitions: map[int]Transition{0: {Clip: "x"}},
			wantErr:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := NewSet(tt.defs, tt.transitions)
			if tt.wantErr && err == nil {
				t.Errorf("NewSet succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewSet failed: %v", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	s := testSet(t)

	tests := []struct {
		desc  string
		value float64
		want  string
	}{
		{"well below first threshold", 20, "quiet"},
		{"very negative", -500, "quiet"},
		{"just below first threshold", 74.999, "quiet"},
		{"exact lower boundary lands in upper band", 75, "lively"},
		{"inside middle band", 80, "lively"},
		{"second boundary", 85, "loud"},
		{"inside loud band", 90, "loud"},
		{"top boundary", 95, "rowdy"},
		{"far above top", 400, "rowdy"},
		{"NaN treated as zero", math.NaN(), "quiet"},
		{"positive infinity treated as zero", math.Inf(1), "quiet"},
		{"negative infinity treated as zero", math.Inf(-1), "quiet"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := s.Classify(tt.value)
			if got.Name != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.value, got.Name, tt.want)
			}
		})
	}
}

// TestClassifyPartition sweeps the whole usable scale and checks that every
// value lands in exactly one band and that Classify agrees with the band's
// own interval.
func TestClassifyPartition(t *testing.T) {
	s := testSet(t)
	bands := s.Bands()

	for v := -200.0; v <= 200.0; v += 0.5 {
		matches := 0
		for _, b := range bands {
			if v >= b.Min && v < b.Max {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("value %v matched %d band intervals, want exactly 1", v, matches)
		}

		got := s.Classify(v)
		if v < got.Min || v >= got.Max {
			t.Fatalf("Classify(%v) = %q [%v,%v), value outside interval", v, got.Name, got.Min, got.Max)
		}
	}
}

func TestSetAccessors(t *testing.T) {
	s := testSet(t)

	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	if top := s.Top(); top.Name != "rowdy" || top.Pos != 3 {
		t.Errorf("Top() = %q at %d, want rowdy at 3", top.Name, top.Pos)
	}

	t.Run("ByPos", func(t *testing.T) {
		b, ok := s.ByPos(2)
		if !ok || b.Name != "loud" {
			t.Errorf("ByPos(2) = %q, %v, want loud, true", b.Name, ok)
		}
		if _, ok := s.ByPos(-1); ok {
			t.Error("ByPos(-1) reported ok")
		}
		if _, ok := s.ByPos(4); ok {
			t.Error("ByPos(4) reported ok")
		}
	})

	t.Run("ByName", func(t *testing.T) {
		b, ok := s.ByName("lively")
		if !ok || b.Pos != 1 {
			t.Errorf("ByName(lively) = pos %d, %v, want 1, true", b.Pos, ok)
		}
		if _, ok := s.ByName("silent"); ok {
			t.Error("ByName(silent) reported ok")
		}
	})

	t.Run("Bands returns a copy", func(t *testing.T) {
		bands := s.Bands()
		bands[0].Name = "mutated"
		if s.Bands()[0].Name != "quiet" {
			t.Error("mutating the returned slice changed the set")
		}
	})

	t.Run("interval plumbing", func(t *testing.T) {
		bands := s.Bands()
		if !math.IsInf(bands[0].Min, -1) {
			t.Errorf("first band Min = %v, want -Inf", bands[0].Min)
		}
		if !math.IsInf(bands[3].Max, 1) {
			t.Errorf("last band Max = %v, want +Inf", bands[3].Max)
		}
		for i := 0; i < len(bands)-1; i++ {
			if bands[i].Max != bands[i+1].Min {
				t.Errorf("band %d Max %v != band %d Min %v", i, bands[i].Max, i+1, bands[i+1].Min)
			}
		}
	})
}
