package synth

import "fmt"

// Category identifies one drum timbre in the bank
type Category int

const (
	Kick Category = iota
	Snare
	HiHatClosed
	HiHatOpen
	TomLow
	TomMid
	TomHigh
	Crash
	Ride

	numCategories
)

// DefaultCategory is played for notes the route doesn't know
const DefaultCategory = Snare

var categoryNames = [numCategories]string{
	"kick", "snare", "hihat-closed", "hihat-open", "tom-low", "tom-mid", "tom-high", "crash", "ride",
}

func (c Category) String() string {
	if c.Valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Valid reports whether c names a timbre
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// Family groups the three toms together; every other category is its own family
func (c Category) Family() string {
	switch c {
	case TomLow, TomMid, TomHigh:
		return "tom"
	}
	return c.String()
}

// Categories lists every category in bank order
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory maps a name from String back to its category
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}
