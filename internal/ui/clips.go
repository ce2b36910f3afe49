package ui

import (
	"sort"
	"time"
)

// Clip is a named mascot animation: fixed frames stepped at an interval.
// Steady clips loop; transition clips play through once, forward on the
// way up and back to front on the way down.
type Clip struct {
	Name     string
	Frames   []string
	Interval time.Duration
}

// Library resolves clip names for the player.
type Library struct {
	clips map[string]Clip
}

// NewLibrary indexes clips by name. Later duplicates win.
func NewLibrary(clips ...Clip) *Library {
	m := make(map[string]Clip, len(clips))
	for _, c := range clips {
		m[c.Name] = c
	}
	return &Library{clips: m}
}

// Get looks a clip up by name.
func (l *Library) Get(name string) (Clip, bool) {
	c, ok := l.clips[name]
	return c, ok
}

// Names returns the clip names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.clips))
	for name := range l.clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultLibrary returns the stock dog: a steady loop for each band and
// the three clips bridging them, drawn to the default configuration's
// clip names and durations.
func DefaultLibrary() *Library {
	return NewLibrary(
		Clip{Name: "dozing", Interval: 600 * time.Millisecond, Frames: dozingFrames},
		Clip{Name: "perky", Interval: 300 * time.Millisecond, Frames: perkyFrames},
		Clip{Name: "barking", Interval: 200 * time.Millisecond, Frames: barkingFrames},
		Clip{Name: "frantic", Interval: 150 * time.Millisecond, Frames: franticFrames},
		Clip{Name: "stir", Interval: 400 * time.Millisecond, Frames: stirFrames},
		Clip{Name: "alert", Interval: 500 * time.Millisecond, Frames: alertFrames},
		Clip{Name: "frenzy", Interval: 500 * time.Millisecond, Frames: frenzyFrames},
	)
}

// The dog. Ears /\ /\, floppy when asleep; eyes close o -> O -> @ as the
// room gets louder.

var dozingFrames = []string{
	`
      Zz
   ____        __
  (_-._)______(  )
   \__________)__)
     ''      ''`[1:],
	`
      zZ
   ____        __
  (_o._)______(  )
   \__________)__)
     ''      ''`[1:],
}

var stirFrames = []string{
	`
   ____        __
  (_o._)______(  )
   \__________)__)
     ''      ''`[1:],
	`
    __
   (o._)______
   /|  _______)_)
    |  |     ''
    '' ''`[1:],
	`
    __
   (o.o)
   /|   \___ /
  / |   |
    ''  ''`[1:],
}

var perkyFrames = []string{
	`
    __
   (o.o)
   /|   \___ /
  / |   |
    ''  ''`[1:],
	`
    __
   (o.o)
   /|   \___ \
  / |   |
    ''  ''`[1:],
}

var alertFrames = []string{
	`
    /\ /\
   (o.o)
   /|   \___ /
  / |   |
    ''  ''`[1:],
	`
    /\ /\
   (O.O)
   /|   \___ |
  / |   |
    ''  ''`[1:],
	`
    /\ /\
   (O.O)
  <|    \___ |
   |    |
   ''   ''`[1:],
}

var barkingFrames = []string{
	`
    /\ /\   WOOF!
   (O,O)<
   /|   \___ |
  / |   |
    ''  ''`[1:],
	`
    /\ /\
   (O.O)
   /|   \___ |
  / |   |
    ''  ''`[1:],
}

var frenzyFrames = []string{
	`
    /\ /\
   (O.O)    !
  _/|   \___|
    |   |
    ''  ''`[1:],
	`
    /\ /\   !!
   (@.@)
   /|   \__/
   '' ''`[1:],
	`
   \ /\ /\ /
    (@,@)   !!
   /|   |\
    |___|
   '     '`[1:],
	`
    /\ /\   !!
   (@.@)
  _/|   \__\
    ''  ''`[1:],
}

var franticFrames = []string{
	`
   \/\ /\/
    (@,@)   !!
   /|   |\__/
    ''  ''`[1:],
	`
    /\ /\
   (@.@)  !!
  \_|   |_/\
   ''    ''`[1:],
	`
   \/\ /\/
    (@,@) !!
   /|   |\__\
    ''  ''`[1:],
}
