package synth

import "fmt"

// Route maps MIDI note numbers to timbre categories
type Route struct {
	Name  string
	notes map[uint8]Category
}

// Category resolves a note, falling back to DefaultCategory for unmapped notes
func (r *Route) Category(note uint8) Category {
	if c, ok := r.Resolve(note); ok {
		return c
	}
	return DefaultCategory
}

// Resolve returns the mapped category and whether the note is mapped at all
func (r *Route) Resolve(note uint8) (Category, bool) {
	c, ok := r.notes[note]
	return c, ok
}

// Notes returns the mapped note numbers for a category, lowest first
func (r *Route) Notes(c Category) []uint8 {
	var out []uint8
	for n := 0; n < 128; n++ {
		if got, ok := r.notes[uint8(n)]; ok && got == c {
			out = append(out, uint8(n))
		}
	}
	return out
}

// GM is the General MIDI percussion mapping
var GM = &Route{
	Name: "General MIDI",
	notes: map[uint8]Category{
		35: Kick,        // Acoustic Bass Drum
		36: Kick,        // Bass Drum 1
		38: Snare,       // Acoustic Snare
		40: Snare,       // Electric Snare
		42: HiHatClosed, // Closed Hi-Hat
		44: HiHatClosed, // Pedal Hi-Hat
		46: HiHatOpen,   // Open Hi-Hat
		41: TomLow,      // Low Floor Tom
		43: TomLow,      // High Floor Tom
		45: TomMid,      // Low Tom
		47: TomLow,      // Low-Mid Tom
		48: TomMid,      // Hi-Mid Tom
		50: TomHigh,     // High Tom
		49: Crash,       // Crash Cymbal 1
		52: Crash,       // Chinese Cymbal
		51: Ride,        // Ride Cymbal 1
		53: Ride,        // Ride Bell
	},
}

// kit lists the notes a drum machine sends for the first nine slots:
// kick, snare, closed HH, open HH, low tom, mid tom, high tom, crash, ride
type kit struct {
	name  string
	notes [9]uint8
}

var kitSlots = [9]Category{Kick, Snare, HiHatClosed, HiHatOpen, TomLow, TomMid, TomHigh, Crash, Ride}

var kits = map[string]kit{
	"rd8":  {"Behringer RD-8", [9]uint8{36, 40, 42, 46, 45, 48, 50, 49, 51}}, // RD-8 snare is 40, not 38
	"tr8s": {"Roland TR-8S", [9]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51}},
	"er1":  {"Korg ER-1", [9]uint8{36, 38, 42, 46, 40, 41, 43, 49, 45}},
}

func (k kit) route() *Route {
	r := &Route{Name: k.name, notes: make(map[uint8]Category, len(k.notes))}
	for i, n := range k.notes {
		r.notes[n] = kitSlots[i]
	}
	return r
}

// RouteNames returns the list of available route names
func RouteNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// RouteByName returns a route by name, defaulting to GM if not found
func RouteByName(name string) *Route {
	if k, ok := kits[name]; ok {
		return k.route()
	}
	return GM
}

// LookupRoute is RouteByName that reports unknown names
func LookupRoute(name string) (*Route, error) {
	if name == "gm" || name == "" {
		return GM, nil
	}
	if k, ok := kits[name]; ok {
		return k.route(), nil
	}
	return nil, fmt.Errorf("unknown kit %q (have %v)", name, RouteNames())
}

var drumNames = map[uint8]string{
	35: "BASS DRUM", 36: "KICK",
	38: "SNARE", 40: "E-SNARE",
	42: "HI-HAT CL", 44: "HI-HAT PD", 46: "HI-HAT OP",
	47: "TOM LOW-M", 48: "TOM HI-M", 50: "TOM HIGH",
	49: "CRASH", 51: "RIDE", 52: "CHINA", 53: "RIDE BELL",
	41: "TOM FLOOR", 43: "TOM FLOOR", 45: "TOM LOW",
}

// DrumName is the kit-piece label shown for a General MIDI note
func DrumName(note uint8) string {
	if n, ok := drumNames[note]; ok {
		return n
	}
	return fmt.Sprintf("NOTE %d", note)
}
