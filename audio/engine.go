package audio

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"airdrums/debug"
	"airdrums/synth"
)

const (
	DefaultFade  = 100 * time.Millisecond
	defaultSweep = 250 * time.Millisecond
)

// handle tracks the newest voice started for a note
type handle struct {
	id       uuid.UUID
	note     uint8
	category synth.Category
	voice    Voice
}

// Engine turns note triggers into voices on an Output.
//
// The engine owns the table of active voices (note -> newest voice). Every
// read and write of the table happens under mu: Trigger, Release, the
// completion sweep in Run and Close. A re-trigger replaces the tracked
// handle while the older voice keeps decaying on its own.
type Engine struct {
	bank *synth.Bank
	out  Output

	fade  time.Duration
	sweep time.Duration

	mu     sync.Mutex
	active map[uint8]*handle

	triggers atomic.Uint64
	dropped  atomic.Uint64
}

// Option configures an Engine
type Option func(*Engine)

// WithFade sets how long Release takes to silence a voice
func WithFade(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.fade = d
		}
	}
}

// WithSweepInterval sets how often Run drops voices that finished on their own
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sweep = d
		}
	}
}

// NewEngine creates an engine playing bank through out. If out is a
// Finisher the engine untracks voices as soon as they end.
func NewEngine(bank *synth.Bank, out Output, opts ...Option) *Engine {
	e := &Engine{
		bank:   bank,
		out:    out,
		fade:   DefaultFade,
		sweep:  defaultSweep,
		active: make(map[uint8]*handle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if f, ok := out.(Finisher); ok {
		f.OnFinish(e.Finished)
	}
	return e
}

// Trigger starts the timbre routed to note at a gain of velocity/127.
//
// If the output can't start a voice the hit is dropped and the error
// returned; the engine stays usable. Velocity 0 releases the note.
func (e *Engine) Trigger(note, velocity uint8) error {
	note &= 0x7F
	velocity &= 0x7F
	if velocity == 0 {
		e.Release(note)
		return nil
	}

	t := e.bank.Lookup(note)
	gain := float64(velocity) / 127

	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.New()
	v, err := e.out.Play(id, t, gain)
	if err != nil {
		e.dropped.Add(1)
		debug.Log("engine", "drop note %d (%s): %v", note, t.Category, err)
		return fmt.Errorf("trigger note %d: %w", note, err)
	}
	e.triggers.Add(1)

	h := &handle{id: id, note: note, category: t.Category, voice: v}
	if prev, ok := e.active[note]; ok {
		debug.LogEvery(20, "engine", "note %d retriggered, untracking %s (%s)", note, prev.id, prev.category)
	}
	e.active[note] = h
	debug.LogEvery(50, "engine", "note %d -> %s gain %.2f voice %s", note, t.Category, gain, h.id)
	return nil
}

// Release fades out the voice tracked for note and stops tracking it.
// Notes with nothing tracked are ignored.
func (e *Engine) Release(note uint8) {
	note &= 0x7F

	e.mu.Lock()
	h, ok := e.active[note]
	if ok {
		delete(e.active, note)
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	h.voice.Fade(e.fade)
}

// Finished untracks the voice with the given id if it is still the one
// tracked for its note. A voice replaced by a re-trigger finishing late
// leaves the newer handle alone.
func (e *Engine) Finished(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for note, h := range e.active {
		if h.id != id {
			continue
		}
		delete(e.active, note)
		debug.LogEvery(50, "engine", "note %d (%s) finished, voice %s", h.note, h.category, id)
		return
	}
}

// Active returns the notes that currently have a tracked voice, lowest first
func (e *Engine) Active() []uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()

	notes := make([]uint8, 0, len(e.active))
	for n := range e.active {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i] < notes[j] })
	return notes
}

// Stats returns how many hits were played and how many were dropped
func (e *Engine) Stats() (triggers, dropped uint64) {
	return e.triggers.Load(), e.dropped.Load()
}

// Run sweeps handles whose voices finished naturally until ctx is done,
// covering outputs that never call Finished (blocking - run in goroutine)
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep()
		}
	}
}

// Sweep removes every tracked handle whose voice is no longer playing.
// The check and the delete share one critical section, so a handle stored
// by a concurrent Trigger is never removed by mistake.
func (e *Engine) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for note, h := range e.active {
		if !h.voice.Playing() {
			delete(e.active, note)
			n++
		}
	}
	if n > 0 {
		debug.LogEvery(20, "engine", "swept %d finished voices", n)
	}
	return n
}

// Close silences every tracked voice and closes the output
func (e *Engine) Close() error {
	e.mu.Lock()
	for note, h := range e.active {
		h.voice.Stop()
		delete(e.active, note)
	}
	e.mu.Unlock()

	return e.out.Close()
}
