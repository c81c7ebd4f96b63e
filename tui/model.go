package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"airdrums/midi"
	"airdrums/synth"
	"airdrums/theme"
	"airdrums/widgets"
)

const (
	frameInterval = 16 * time.Millisecond // ~60fps
	flashDecay    = 0.85                  // per frame
	flashFloor    = 0.02
	padWidth      = 13
	meterCells    = 16
)

// kit layout, cymbals on top
var padRows = [][]synth.Category{
	{synth.Crash, synth.HiHatClosed, synth.HiHatOpen, synth.Ride},
	{synth.TomHigh, synth.TomMid, synth.TomLow, synth.Snare, synth.Kick},
}

var keyHelp = []widgets.KeySection{
	{Keys: []widgets.KeyBinding{{Key: "c", Desc: "clear"}, {Key: "q", Desc: "quit"}}},
}

type Model struct {
	Feed   *Feed
	Theme  *theme.Theme
	Route  *synth.Route
	Status string

	levels   []float64 // flash level per category
	last     *Hit
	hits     uint64
	quitting bool
}

type tickMsg time.Time

func NewModel(feed *Feed, th *theme.Theme, route *synth.Route, status string) Model {
	if route == nil {
		route = synth.GM
	}
	return Model{
		Feed:   feed,
		Theme:  th,
		Route:  route,
		Status: status,
		levels: make([]float64, len(synth.Categories())),
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(ListenForHits(m.Feed), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.hits = 0
			m.last = nil
			m.levels = make([]float64, len(m.levels))
		}

	case HitMsg:
		m = m.hit(Hit(msg))
		return m, ListenForHits(m.Feed)

	case tickMsg:
		m.levels = decay(m.levels)
		return m, tick()
	}

	return m, nil
}

func (m Model) hit(h Hit) Model {
	if h.Off {
		return m
	}
	levels := make([]float64, len(m.levels))
	copy(levels, m.levels)
	c := m.Route.Category(h.Note)
	levels[c] = max(levels[c], float64(h.Velocity)/127)
	m.levels = levels
	m.last = &h
	m.hits++
	return m
}

func decay(levels []float64) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		l *= flashDecay
		if l < flashFloor {
			l = 0
		}
		out[i] = l
	}
	return out
}

// Level returns the current flash level of a pad
func (m Model) Level(c synth.Category) float64 {
	if !c.Valid() || int(c) >= len(m.levels) {
		return 0
	}
	return m.levels[c]
}

// Hits counts note-ons seen since start or the last clear
func (m Model) Hits() uint64 {
	return m.hits
}

// Info describes the last hit, e.g. "KICK • Note 36 (C2) • Velocity 100"
func (m Model) Info() string {
	if m.last == nil {
		return "waiting for hits"
	}
	sep := fmt.Sprintf(" %c ", m.Theme.Symbols.Sep)
	return strings.Join([]string{
		synth.DrumName(m.last.Note),
		fmt.Sprintf("Note %d (%s)", m.last.Note, midi.NoteName(m.last.Note)),
		fmt.Sprintf("Velocity %d", m.last.Velocity),
	}, sep)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	header := headerStyle.Render("airdrums") + "  " +
		dimStyle.Render(fmt.Sprintf("%s  kit:%s  hits:%d", m.Status, m.Route.Name, m.hits))

	var rows []string
	for _, row := range padRows {
		pads := make([]widgets.Pad, len(row))
		for i, c := range row {
			lvl := m.Level(c)
			pads[i] = widgets.Pad{
				Label: strings.ToUpper(c.String()),
				Color: m.Theme.PadRGB(c, 0.35+0.65*lvl),
				Lit:   lvl > 0,
			}
		}
		rows = append(rows, widgets.RenderPadRow(pads, padWidth, m.Theme.Symbols.Lit, m.Theme.Symbols.Idle))
	}

	meter := ""
	if m.last != nil {
		c := m.Route.Category(m.last.Note)
		meter = widgets.RenderMeter(m.Level(c), meterCells, m.Theme.Symbols.Meter, m.Theme.CategoryRGB(c))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(rows, "\n"))
	out.WriteString("\n\n")
	out.WriteString(infoStyle.Render(m.Info()))
	out.WriteString("  ")
	out.WriteString(meter)
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))

	if n := m.Feed.Dropped(); n > 0 {
		out.WriteString(dimStyle.Render(fmt.Sprintf("  (%d dropped)", n)))
	}

	return out.String()
}
