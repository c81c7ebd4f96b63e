package lights

import (
	"context"
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"airdrums/debug"
	"airdrums/dispatch"
	"airdrums/synth"
	"airdrums/theme"
)

const (
	// DefaultHold is how long a pad stays lit after a hit
	DefaultHold = 120 * time.Millisecond

	queueSize = 64
	frame     = 16 * time.Millisecond
)

// Sender writes one message to the device
type Sender func(msg gomidi.Message) error

type cell struct{ row, col int }

// layout gives each drum a block of the 8x8 grid (row 0 at bottom),
// cymbals on top like the screen display
var layout = map[synth.Category][]cell{
	synth.Crash:       block(6, 0, 2, 2),
	synth.HiHatClosed: block(6, 2, 2, 2),
	synth.HiHatOpen:   block(6, 4, 2, 2),
	synth.Ride:        block(6, 6, 2, 2),
	synth.Snare:       block(3, 0, 2, 2),
	synth.TomHigh:     block(3, 2, 2, 2),
	synth.TomMid:      block(3, 4, 2, 2),
	synth.TomLow:      block(3, 6, 2, 2),
	synth.Kick:        block(0, 2, 2, 4),
}

func block(row, col, h, w int) []cell {
	var out []cell
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			out = append(out, cell{r, c})
		}
	}
	return out
}

type hit struct {
	note     uint8
	velocity uint8
}

// Launchpad lights a Novation Launchpad X grid as notes arrive. It is a
// dispatch observer; the device is written from Run, never from the
// receive path.
type Launchpad struct {
	dispatch.NopObserver

	send  Sender
	route *synth.Route
	theme *theme.Theme
	hold  time.Duration
	queue chan hit

	close func() error
}

// New creates a pad lighter writing through send
func New(send Sender, route *synth.Route, th *theme.Theme) *Launchpad {
	if route == nil {
		route = synth.GM
	}
	return &Launchpad{
		send:  send,
		route: route,
		theme: th,
		hold:  DefaultHold,
		queue: make(chan hit, queueSize),
	}
}

// Open connects to a Launchpad output port and switches it to programmer mode
func Open(out drivers.Out, route *synth.Route, th *theme.Theme) (*Launchpad, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", out, err)
	}

	if err := setup(send); err != nil {
		return nil, err
	}

	lp := New(send, route, th)
	lp.close = out.Close
	return lp, nil
}

// setup puts the device in programmer mode. Brightness is best effort.
func setup(send Sender) error {
	// Programmer mode: F0 00 20 29 02 0C 00 7F F7
	if err := send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F})); err != nil {
		return fmt.Errorf("programmer mode: %w", err)
	}
	// Brightness to maximum: F0 00 20 29 02 0C 08 <brightness> F7
	if err := send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F})); err != nil {
		debug.Log("lights", "brightness: %v", err)
	}
	return nil
}

func (l *Launchpad) NoteOn(note, velocity uint8) {
	select {
	case l.queue <- hit{note, velocity}:
	default:
		debug.LogEvery(50, "lights", "queue full, hit dropped")
	}
}

// Run drives the LEDs until ctx is cancelled, then clears the grid
// (blocking - run in goroutine)
func (l *Launchpad) Run(ctx context.Context) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	lit := make(map[synth.Category]time.Time)
	l.paint(l.idle)

	for {
		select {
		case <-ctx.Done():
			l.paint(func(synth.Category) uint8 { return 0 })
			if l.close != nil {
				l.close()
			}
			return

		case h := <-l.queue:
			c := l.route.Category(h.note)
			lit[c] = time.Now().Add(l.hold)
			l.light(c, l.color(c, float64(h.velocity)/127))

		case now := <-ticker.C:
			for c, until := range lit {
				if now.After(until) {
					delete(lit, c)
					l.light(c, l.idle(c))
				}
			}
		}
	}
}

// idle is the dim resting color of a drum's block
func (l *Launchpad) idle(c synth.Category) uint8 {
	return l.color(c, 0.15)
}

func (l *Launchpad) color(c synth.Category, level float64) uint8 {
	return nearestColor(l.theme.PadRGB(c, level))
}

func (l *Launchpad) paint(color func(synth.Category) uint8) {
	for c := range layout {
		l.light(c, color(c))
	}
}

func (l *Launchpad) light(c synth.Category, color uint8) {
	for _, p := range layout[c] {
		if err := l.send(gomidi.NoteOn(0, padNote(p.row, p.col), color)); err != nil {
			debug.LogEvery(50, "lights", "send: %v", err)
			return
		}
	}
}

// Launchpad X programmer mode: row 0 (bottom) = notes 11-18, row 7 = notes 81-88
func padNote(row, col int) uint8 {
	return uint8((row+1)*10 + col + 1)
}

// launchpadPalette holds approximate RGB values for a subset of the
// Launchpad X palette: {velocity, R, G, B}
var launchpadPalette = [][4]uint8{
	{0, 0, 0, 0},         // off
	{5, 255, 0, 0},       // red
	{6, 255, 80, 80},     // bright red
	{7, 180, 60, 60},     // dim red
	{9, 255, 100, 0},     // orange
	{11, 180, 80, 40},    // dim orange
	{13, 255, 200, 0},    // yellow
	{17, 0, 180, 0},      // green
	{19, 0, 100, 0},      // dim green
	{37, 0, 200, 200},    // cyan
	{43, 40, 60, 120},    // dim blue
	{45, 0, 100, 255},    // blue
	{49, 150, 0, 200},    // purple
	{53, 255, 80, 180},   // pink
	{84, 255, 150, 50},   // bright orange
	{97, 180, 180, 60},   // dim yellow
	{119, 255, 255, 255}, // white
}

// nearestColor finds the closest palette entry for an RGB value
func nearestColor(rgb [3]uint8) uint8 {
	best := uint8(0)
	bestDist := 1 << 30

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range launchpadPalette {
		dr, dg, db := r-int(p[1]), g-int(p[2]), b-int(p[3])
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			bestDist = dist
			best = p[0]
		}
	}
	return best
}
