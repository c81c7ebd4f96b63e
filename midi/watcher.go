package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"

	"airdrums/debug"
)

// PortEvent is emitted when a watched input port appears or goes away
type PortEvent struct {
	Type PortEventType
	Name string
	Err  error // set when a matching port could not be opened
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
	PortFailed
)

func (t PortEventType) String() string {
	switch t {
	case PortConnected:
		return "connected"
	case PortDisconnected:
		return "disconnected"
	}
	return "failed"
}

// Watcher keeps every input port whose name contains a pattern open and
// forwarding, handling hot-plug by polling
type Watcher struct {
	match    string
	forward  func([]byte)
	events   chan PortEvent
	pollRate time.Duration

	list func() ([]drivers.In, error)
	open func(drivers.In, func([]byte)) (func(), error)

	mu    sync.Mutex
	ports map[string]func() // stop funcs by port name
}

// NewWatcher creates a watcher for ports matching name (case-insensitive
// substring; empty matches every port)
func NewWatcher(name string, forward func([]byte)) *Watcher {
	return &Watcher{
		match:    strings.ToLower(name),
		forward:  forward,
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
		list:     func() ([]drivers.In, error) { return InPorts(3 * time.Second) },
		open:     OpenInput,
		ports:    make(map[string]func()),
	}
}

// Events returns a channel of connect/disconnect events. It is closed when
// Run returns.
func (w *Watcher) Events() <-chan PortEvent {
	return w.events
}

// Open returns the names of the ports currently forwarding
func (w *Watcher) Open() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.ports))
	for n := range w.ports {
		names = append(names, n)
	}
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.scan()

	for {
		select {
		case <-ctx.Done():
			w.closeAll()
			close(w.events)
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Watcher) scan() {
	ports, err := w.list()
	if err != nil {
		// driver hung, try again next tick
		debug.Log("midi-watch", "list ports: %v", err)
		return
	}

	seen := make(map[string]bool)
	for _, p := range ports {
		name := p.String()
		if !strings.Contains(strings.ToLower(name), w.match) {
			continue
		}
		seen[name] = true

		w.mu.Lock()
		_, exists := w.ports[name]
		w.mu.Unlock()
		if exists {
			continue
		}

		stop, err := w.open(p, w.forward)
		if err != nil {
			debug.Log("midi-watch", "open %s: %v", name, err)
			w.emit(PortEvent{Type: PortFailed, Name: name, Err: err})
			continue
		}
		w.mu.Lock()
		w.ports[name] = stop
		w.mu.Unlock()
		debug.Log("midi-watch", "connected %s", name)
		w.emit(PortEvent{Type: PortConnected, Name: name})
	}

	w.mu.Lock()
	var gone []string
	for name, stop := range w.ports {
		if !seen[name] {
			stop()
			delete(w.ports, name)
			gone = append(gone, name)
		}
	}
	w.mu.Unlock()

	for _, name := range gone {
		debug.Log("midi-watch", "disconnected %s", name)
		w.emit(PortEvent{Type: PortDisconnected, Name: name})
	}
}

// emit drops the event when nobody is reading
func (w *Watcher) emit(ev PortEvent) {
	select {
	case w.events <- ev:
	default:
		debug.Log("midi-watch", "event dropped: %s %s", ev.Type, ev.Name)
	}
}

func (w *Watcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, stop := range w.ports {
		stop()
	}
	w.ports = make(map[string]func())
}
