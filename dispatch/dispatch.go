package dispatch

import (
	rtdebug "runtime/debug"
	"sync"

	"airdrums/debug"
	"airdrums/midi"
)

// Player is the sound side of a dispatcher (satisfied by *audio.Engine)
type Player interface {
	Trigger(note, velocity uint8) error
	Release(note uint8)
}

// Observer gets every event after the player has handled it. Calls come
// from the receive goroutine and must not block; an observer bound to a UI
// loop should hand the event over and return.
type Observer interface {
	NoteOn(note, velocity uint8)
	NoteOff(note uint8)
	ControlChange(controller, value uint8)
}

// NopObserver ignores everything. Embed it to implement only some methods.
type NopObserver struct{}

func (NopObserver) NoteOn(note, velocity uint8)           {}
func (NopObserver) NoteOff(note uint8)                    {}
func (NopObserver) ControlChange(controller, value uint8) {}

// Dispatcher routes decoded events to the player and the observers.
// Control changes have no built-in meaning and only reach observers.
type Dispatcher struct {
	player Player

	mu        sync.RWMutex
	observers []Observer
}

// New creates a dispatcher for player
func New(player Player, observers ...Observer) *Dispatcher {
	d := &Dispatcher{player: player}
	for _, o := range observers {
		d.Observe(o)
	}
	return d
}

// Observe registers another observer
func (d *Dispatcher) Observe(o Observer) {
	if o == nil {
		return
	}
	d.mu.Lock()
	d.observers = append(d.observers, o)
	d.mu.Unlock()
}

// HandlePacket decodes one datagram and dispatches its events in order
func (d *Dispatcher) HandlePacket(data []byte) int {
	n := 0
	for ev := range midi.Events(data) {
		d.Dispatch(ev)
		n++
	}
	if n == 0 && len(data) > 0 {
		debug.LogEvery(10, "dispatch", "no events in %d byte packet % X", len(data), head(data))
	}
	return n
}

// Dispatch sends one event to the player, then to every observer
func (d *Dispatcher) Dispatch(ev midi.Event) {
	switch ev.Kind {
	case midi.NoteOn:
		if err := d.player.Trigger(ev.Note, ev.Velocity); err != nil {
			debug.Log("dispatch", "%s: %v", ev, err)
		}
	case midi.NoteOff:
		d.player.Release(ev.Note)
	}

	d.mu.RLock()
	observers := d.observers
	d.mu.RUnlock()

	for _, o := range observers {
		notify(o, ev)
	}
}

// notify isolates observer failures from the receive path
func notify(o Observer, ev midi.Event) {
	defer func() {
		if r := recover(); r != nil {
			debug.Log("dispatch", "observer %T panicked on %s: %v\n%s", o, ev, r, rtdebug.Stack())
		}
	}()

	switch ev.Kind {
	case midi.NoteOn:
		o.NoteOn(ev.Note, ev.Velocity)
	case midi.NoteOff:
		o.NoteOff(ev.Note)
	case midi.ControlChange:
		o.ControlChange(ev.Note, ev.Velocity)
	}
}

func head(data []byte) []byte {
	if len(data) > 8 {
		return data[:8]
	}
	return data
}

// ObserverFunc adapts a note-on callback into an Observer
type ObserverFunc func(note, velocity uint8)

func (f ObserverFunc) NoteOn(note, velocity uint8)           { f(note, velocity) }
func (f ObserverFunc) NoteOff(note uint8)                    {}
func (f ObserverFunc) ControlChange(controller, value uint8) {}
