package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"airdrums/debug"
	"airdrums/dispatch"
)

// DefaultFeedSize is enough for a fast fill between two UI frames
const DefaultFeedSize = 256

// Hit is one note event on its way to the display
type Hit struct {
	Note     uint8
	Velocity uint8
	Off      bool
}

// Feed is a dispatch observer that hands notes to the UI loop. Sends never
// block: when the UI falls behind, the newest hits are dropped.
type Feed struct {
	dispatch.NopObserver

	ch      chan Hit
	dropped atomic.Uint64
}

// NewFeed creates a feed buffering up to size hits
func NewFeed(size int) *Feed {
	if size < 1 {
		size = DefaultFeedSize
	}
	return &Feed{ch: make(chan Hit, size)}
}

func (f *Feed) NoteOn(note, velocity uint8) {
	f.push(Hit{Note: note, Velocity: velocity})
}

func (f *Feed) NoteOff(note uint8) {
	f.push(Hit{Note: note, Off: true})
}

func (f *Feed) push(h Hit) {
	select {
	case f.ch <- h:
	default:
		n := f.dropped.Add(1)
		debug.LogEvery(100, "tui", "display behind, %d hits dropped", n)
	}
}

// Hits is the receive side of the feed
func (f *Feed) Hits() <-chan Hit {
	return f.ch
}

// Dropped counts hits the display never saw
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}

// HitMsg carries a hit into the bubbletea update loop
type HitMsg Hit

// ListenForHits waits for the next hit on the feed
func ListenForHits(f *Feed) tea.Cmd {
	return func() tea.Msg {
		return HitMsg(<-f.ch)
	}
}
