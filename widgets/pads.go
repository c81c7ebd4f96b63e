package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pad is one drum in the kit display
type Pad struct {
	Label string
	Color [3]uint8 // already scaled by the flash level
	Lit   bool
}

// RenderPad renders a bordered pad of the given inner width
func RenderPad(p Pad, width int, lit, idle rune) string {
	c := lipgloss.Color(rgbToHex(p.Color))
	style := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Foreground(c)

	mark := idle
	if p.Lit {
		mark = lit
		style = style.Bold(true)
	}
	return style.Render(p.Label + "\n" + strings.Repeat(string(mark), 3))
}

// RenderPadRow renders pads side by side with one column of spacing
func RenderPadRow(pads []Pad, width int, lit, idle rune) string {
	cells := make([]string, 0, len(pads)*2)
	for i, p := range pads {
		if i > 0 {
			cells = append(cells, " ")
		}
		cells = append(cells, RenderPad(p, width, lit, idle))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// RenderMeter renders a bar of cells filled in proportion to level (0-1)
func RenderMeter(level float64, cells int, cell rune, color [3]uint8) string {
	level = max(0, min(1, level))
	filled := int(level*float64(cells) + 0.5)
	on := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return on.Render(strings.Repeat(string(cell), filled)) + strings.Repeat(" ", cells-filled)
}

// RenderKeyHelp formats key bindings on one line: "q quit  ? help"
func RenderKeyHelp(sections []KeySection) string {
	var parts []string
	for _, sec := range sections {
		for _, k := range sec.Keys {
			parts = append(parts, fmt.Sprintf("%s:%s", k.Key, k.Desc))
		}
	}
	return strings.Join(parts, "  ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
