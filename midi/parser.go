package midi

import (
	"iter"
	"slices"
)

const (
	statusFlag  = 0x80
	typeMask    = 0xF0
	dataMask    = 0x7F
	messageSize = 3
)

// Events yields the note and control messages found in data, in order.
//
// Only 0x8n, 0x9n and 0xBn messages are decoded. Any other byte (data bytes
// without a status, unsupported status types) is skipped one at a time, and
// a message cut short by the end of the buffer ends the sequence. NoteOn
// with velocity 0 is reported as NoteOff. Each buffer is decoded on its own;
// there is no running status carried between calls.
func Events(data []byte) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		i := 0
		for i < len(data) {
			status := data[i]
			if status&statusFlag == 0 || !supported(Kind(status&typeMask)) {
				i++
				continue
			}
			if i+messageSize > len(data) {
				return
			}

			ev := Event{
				Kind:     Kind(status & typeMask),
				Note:     data[i+1] & dataMask,
				Velocity: data[i+2] & dataMask,
			}
			switch ev.Kind {
			case NoteOn:
				if ev.Velocity == 0 {
					ev.Kind = NoteOff
				}
			case NoteOff:
				ev.Velocity = 0
			}

			if !yield(ev) {
				return
			}
			i += messageSize
		}
	}
}

// Parse decodes every event in data
func Parse(data []byte) []Event {
	return slices.Collect(Events(data))
}

func supported(k Kind) bool {
	return k == NoteOn || k == NoteOff || k == ControlChange
}
