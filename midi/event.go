package midi

import "fmt"

// Kind is the status nibble of a supported channel message
type Kind uint8

// MIDI message types
const (
	NoteOff       Kind = 0x80
	NoteOn        Kind = 0x90
	ControlChange Kind = 0xB0
)

func (k Kind) String() string {
	switch k {
	case NoteOff:
		return "note-off"
	case NoteOn:
		return "note-on"
	case ControlChange:
		return "cc"
	}
	return fmt.Sprintf("kind(0x%02X)", uint8(k))
}

// Event is a decoded note or control message. Channel is dropped; the drum
// kit answers on every channel.
//
// For ControlChange, Note holds the controller number and Velocity the value.
type Event struct {
	Kind     Kind
	Note     uint8
	Velocity uint8
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOff:
		return fmt.Sprintf("note-off %d", e.Note)
	case ControlChange:
		return fmt.Sprintf("cc %d=%d", e.Note, e.Velocity)
	}
	return fmt.Sprintf("%s %d vel %d", e.Kind, e.Note, e.Velocity)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the pitch name of a note number, middle C (60) is C4
func NoteName(note uint8) string {
	n := int(note & 0x7F)
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}
