package lights

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"airdrums/debug"
	"airdrums/dispatch"
	"airdrums/synth"
	"airdrums/theme"
)

var _ dispatch.Observer = (*Launchpad)(nil)

type recorder struct {
	mu    sync.Mutex
	state map[uint8]uint8 // pad note -> color
	sends int
}

func (r *recorder) send(msg gomidi.Message) error {
	b := msg.Bytes()
	if len(b) != 3 || b[0]&0xF0 != 0x90 {
		return nil
	}
	key, vel := b[1], b[2]
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[key] = vel
	r.sends++
	return nil
}

func (r *recorder) color(note uint8) uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state[note]
}

func TestLayoutCoversKitWithoutOverlap(t *testing.T) {
	used := make(map[uint8]synth.Category)
	for _, c := range synth.Categories() {
		cells := layout[c]
		if len(cells) == 0 {
			t.Fatalf("%s has no pads", c)
		}
		for _, p := range cells {
			if p.row < 0 || p.row > 7 || p.col < 0 || p.col > 7 {
				t.Fatalf("%s pad %v off the grid", c, p)
			}
			n := padNote(p.row, p.col)
			if other, ok := used[n]; ok {
				t.Fatalf("pad %d shared by %s and %s", n, other, c)
			}
			used[n] = c
		}
	}
}

func TestPadNote(t *testing.T) {
	tests := []struct {
		row, col int
		want     uint8
	}{
		{0, 0, 11}, {0, 7, 18}, {7, 0, 81}, {7, 7, 88}, {3, 4, 45},
	}
	for _, tt := range tests {
		if got := padNote(tt.row, tt.col); got != tt.want {
			t.Errorf("padNote(%d, %d) = %d, want %d", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestNearestColor(t *testing.T) {
	tests := []struct {
		rgb  [3]uint8
		want uint8
	}{
		{[3]uint8{0, 0, 0}, 0},
		{[3]uint8{255, 255, 255}, 119},
		{[3]uint8{250, 5, 5}, 5},
		{[3]uint8{0, 90, 250}, 45},
	}
	for _, tt := range tests {
		if got := nearestColor(tt.rgb); got != tt.want {
			t.Errorf("nearestColor(%v) = %d, want %d", tt.rgb, got, tt.want)
		}
	}
}

func TestRunLightsAndClears(t *testing.T) {
	rec := &recorder{state: make(map[uint8]uint8)}
	th := theme.New(theme.Plasma())
	lp := New(rec.send, synth.GM, th)
	lp.hold = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		lp.Run(ctx)
		close(done)
	}()

	kickPad := padNote(layout[synth.Kick][0].row, layout[synth.Kick][0].col)
	idle := lp.idle(synth.Kick)
	full := lp.color(synth.Kick, 1)

	waitFor := func(what string, want uint8) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for rec.color(kickPad) != want {
			if time.Now().After(deadline) {
				t.Fatalf("%s: kick pad = %d, want %d", what, rec.color(kickPad), want)
			}
			time.Sleep(time.Millisecond)
		}
	}

	waitFor("idle", idle)
	lp.NoteOn(36, 127)
	if full != idle {
		waitFor("hit", full)
	}
	waitFor("release", idle)

	cancel()
	<-done
	if got := rec.color(kickPad); got != 0 {
		t.Fatalf("kick pad after stop = %d, want off", got)
	}
}

func TestNoteOnNeverBlocks(t *testing.T) {
	lp := New(func(gomidi.Message) error { return nil }, nil, theme.New(theme.Plasma()))
	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*3; i++ {
			lp.NoteOn(38, 100)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NoteOn blocked with no Run loop")
	}
}

func TestSetupLogsBrightnessFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	if err := debug.EnableFile(path); err != nil {
		t.Fatalf("EnableFile() error = %v", err)
	}
	defer debug.Disable()

	var sysex [][]byte
	send := func(msg gomidi.Message) error {
		sysex = append(sysex, msg.Bytes())
		if len(sysex) == 2 {
			return errors.New("port gone")
		}
		return nil
	}
	if err := setup(send); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if len(sysex) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sysex))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if out := string(data); !strings.Contains(out, "brightness: port gone") {
		t.Fatalf("brightness failure not logged in %q", out)
	}
}

func TestSetupProgrammerModeFailure(t *testing.T) {
	calls := 0
	send := func(msg gomidi.Message) error {
		calls++
		return errors.New("port gone")
	}
	if err := setup(send); err == nil {
		t.Fatal("setup() error = nil, want error")
	}
	if calls != 1 {
		t.Fatalf("sent %d messages after programmer mode failed", calls)
	}
}
