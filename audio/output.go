package audio

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"airdrums/synth"
)

// ErrNoVoice is returned by an Output that has no free playback slot
var ErrNoVoice = errors.New("audio: no free voice")

// Output is the audio subsystem the engine plays through. Mixing happens on
// the output's own real-time thread; Play must return quickly.
type Output interface {
	// Play starts t at the given linear gain (0-1) as voice id
	Play(id uuid.UUID, t *synth.Timbre, gain float64) (Voice, error)
	Close() error
}

// Finisher is implemented by outputs that report voices ending on their
// own. The callback runs on the output's goroutine.
type Finisher interface {
	OnFinish(fn func(id uuid.UUID))
}

// Voice is one playing instance of a timbre
type Voice interface {
	// Fade ramps the voice to silence over d, then ends it
	Fade(d time.Duration)
	// Playing reports whether the voice is still producing sound
	Playing() bool
	// Stop silences the voice immediately
	Stop()
}
