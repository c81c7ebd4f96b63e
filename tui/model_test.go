package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"airdrums/dispatch"
	"airdrums/synth"
	"airdrums/theme"
)

var _ dispatch.Observer = (*Feed)(nil)

func newTestModel() Model {
	return NewModel(NewFeed(4), theme.New(theme.Plasma()), synth.GM, "Listening on 127.0.0.1:6000")
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return nm, cmd
}

func TestFeedNeverBlocks(t *testing.T) {
	f := NewFeed(2)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			f.NoteOn(36, 100)
		}
		f.ControlChange(1, 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NoteOn blocked on a full feed")
	}
	if got := f.Dropped(); got != 8 {
		t.Fatalf("Dropped() = %d, want 8", got)
	}
	if h := <-f.Hits(); h.Note != 36 || h.Velocity != 100 || h.Off {
		t.Fatalf("hit = %+v", h)
	}
}

func TestListenForHits(t *testing.T) {
	f := NewFeed(1)
	f.NoteOff(42)
	msg := ListenForHits(f)()
	if h, ok := msg.(HitMsg); !ok || h.Note != 42 || !h.Off {
		t.Fatalf("ListenForHits() = %#v", msg)
	}
}

func TestHitFlashesPad(t *testing.T) {
	m := newTestModel()
	m, cmd := update(t, m, HitMsg{Note: 36, Velocity: 127})
	if cmd == nil {
		t.Fatal("HitMsg should re-arm the listener")
	}
	if got := m.Level(synth.Kick); got != 1 {
		t.Fatalf("kick level = %v, want 1", got)
	}
	if m.Hits() != 1 {
		t.Fatalf("Hits() = %d, want 1", m.Hits())
	}
	if got, want := m.Info(), "KICK • Note 36 (C2) • Velocity 127"; got != want {
		t.Fatalf("Info() = %q, want %q", got, want)
	}

	// unmapped notes light the fallback pad
	m, _ = update(t, m, HitMsg{Note: 100, Velocity: 64})
	if got := m.Level(synth.Snare); got <= 0.5 || got >= 0.51 {
		t.Fatalf("snare level = %v, want 64/127", got)
	}
}

func TestNoteOffDoesNotCount(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, HitMsg{Note: 38, Off: true})
	if m.Hits() != 0 || m.Level(synth.Snare) != 0 {
		t.Fatalf("note-off changed the display: hits=%d", m.Hits())
	}
}

func TestTickDecaysToZero(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, HitMsg{Note: 49, Velocity: 127})

	prev := m.Level(synth.Crash)
	for i := 0; i < 100 && m.Level(synth.Crash) > 0; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, tickMsg(time.Now()))
		if cmd == nil {
			t.Fatal("tick should schedule the next frame")
		}
		if got := m.Level(synth.Crash); got > prev {
			t.Fatalf("level rose from %v to %v", prev, got)
		}
		prev = m.Level(synth.Crash)
	}
	if m.Level(synth.Crash) != 0 {
		t.Fatalf("flash never decayed, level = %v", m.Level(synth.Crash))
	}
}

func TestQuitAndClear(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, HitMsg{Note: 36, Velocity: 90})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if m.Hits() != 0 || m.Level(synth.Kick) != 0 || m.Info() != "waiting for hits" {
		t.Fatal("clear left state behind")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
	if m.View() != "" {
		t.Fatal("View() after quit should be empty")
	}
}

func TestView(t *testing.T) {
	m := newTestModel()
	m, _ = update(t, m, HitMsg{Note: 42, Velocity: 100})
	v := m.View()
	for _, want := range []string{
		"Listening on 127.0.0.1:6000",
		"HIHAT-CLOSED",
		"KICK",
		"HI-HAT CL • Note 42 (F#2) • Velocity 100",
		"hits:1",
		"q:quit",
	} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
