package theme

import (
	"github.com/charmbracelet/lipgloss"

	"airdrums/synth"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Lit   rune // ■ pad sounding
	Idle  rune // □ pad quiet
	Meter rune // ▮ velocity meter cell
	Sep   rune // • info line separator
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Lit:   '■',
			Idle:  '□',
			Meter: '▮',
			Sep:   '•',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep blue
	RoleSurface = 0.1 // indigo
	RoleMuted   = 0.2 // purple
	RoleFG      = 0.6 // coral (readable)
	RoleAccent  = 0.5 // rose
	RoleActive  = 0.8 // amber
	RoleSuccess = 1.0 // yellow
)

// categoryStops places each drum category along the palette, skipping the
// darkest stretch so idle pads stay visible
var categoryStops = map[synth.Category]float64{
	synth.Kick:        0.30,
	synth.Snare:       0.42,
	synth.HiHatClosed: 0.95,
	synth.HiHatOpen:   0.88,
	synth.TomLow:      0.52,
	synth.TomMid:      0.60,
	synth.TomHigh:     0.68,
	synth.Crash:       1.00,
	synth.Ride:        0.78,
}

// Style helpers

func (t *Theme) BG() lipgloss.Color      { return color(t.Palette.Lookup(RoleBG)) }
func (t *Theme) Surface() lipgloss.Color { return color(t.Palette.Lookup(RoleSurface)) }
func (t *Theme) FG() lipgloss.Color      { return color(t.Palette.Lookup(RoleFG)) }
func (t *Theme) Accent() lipgloss.Color  { return color(t.Palette.Lookup(RoleAccent)) }
func (t *Theme) Muted() lipgloss.Color   { return color(t.Palette.Lookup(RoleMuted)) }
func (t *Theme) Active() lipgloss.Color  { return color(t.Palette.Lookup(RoleActive)) }
func (t *Theme) Success() lipgloss.Color { return color(t.Palette.Lookup(RoleSuccess)) }

// CategoryRGB is the full-brightness color of a drum pad
func (t *Theme) CategoryRGB(c synth.Category) RGB {
	stop, ok := categoryStops[c]
	if !ok {
		stop = RoleFG
	}
	return t.Palette.Lookup(stop)
}

// PadRGB is a pad's color at flash level 0-1: the surface color when
// quiet, the category color at full flash
func (t *Theme) PadRGB(c synth.Category, level float64) RGB {
	return t.Palette.Lookup(RoleSurface).Blend(t.CategoryRGB(c), level)
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return color(t.Palette.Lookup(norm))
}

func color(c RGB) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
