package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"airdrums/debug"
)

// ErrPortTimeout is returned when the MIDI driver hangs while listing ports
var ErrPortTimeout = errors.New("midi: timed out listing ports")

// ErrPortNotFound is returned when no port matches a name
var ErrPortNotFound = errors.New("midi: port not found")

// InPorts lists the MIDI input ports of the registered driver, giving up
// after timeout (CoreMIDI can hang). Binaries register the driver themselves.
func InPorts(timeout time.Duration) ([]drivers.In, error) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(timeout):
		return nil, ErrPortTimeout
	}
}

// FindInPort returns the first input port whose name contains name (case-insensitive)
func FindInPort(ports []drivers.In, name string) (drivers.In, error) {
	want := strings.ToLower(name)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
}

// OpenInput listens on a hardware port and hands every channel message's raw
// bytes to fn. The bytes use the same wire format the UDP listener expects,
// so they can be forwarded unchanged. Call stop to close the listener.
func OpenInput(port drivers.In, fn func([]byte)) (stop func(), err error) {
	stop, err = gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		if !forwardable(msg) {
			return
		}
		debug.LogEvery(100, "midi-in", "%s", msg)
		fn(msg.Bytes())
	})
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", port, err)
	}
	return stop, nil
}

// forwardable keeps note on/off and control change, the messages the
// listener decodes
func forwardable(msg gomidi.Message) bool {
	b := msg.Bytes()
	if len(b) != messageSize {
		return false
	}
	return supported(Kind(b[0] & typeMask))
}

// OutPorts lists the MIDI output ports, giving up after timeout
func OutPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(timeout):
		return nil, ErrPortTimeout
	}
}

// FindOutPort returns the first output port whose name contains name (case-insensitive)
func FindOutPort(ports []drivers.Out, name string) (drivers.Out, error) {
	want := strings.ToLower(name)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
}
