package audio

import (
	"encoding/binary"
	"io"
	"sync"
	"time"
)

// frameBytes is one interleaved stereo int16 frame
const frameBytes = 4

// FadeReader streams interleaved 16-bit stereo PCM and applies a linear
// release ramp once Fade is called. An output's mixer calls Read from its
// own goroutine while Fade and Stop arrive from the engine. Reads always
// hand out whole frames.
type FadeReader struct {
	mu         sync.Mutex
	pcm        []byte
	pos        int
	sampleRate int

	fadeTotal int // frames in the ramp, 0 when not fading
	fadeLeft  int
	stopped   bool
}

// NewFadeReader reads pcm, which must not be modified while in use. A
// trailing partial frame is ignored.
func NewFadeReader(pcm []byte, sampleRate int) *FadeReader {
	return &FadeReader{pcm: pcm[:len(pcm)&^(frameBytes-1)], sampleRate: sampleRate}
}

// Fade ramps the remaining audio down to silence over d and then ends the
// stream. A fade already closer to silence is left alone.
func (r *FadeReader) Fade(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := int(d.Seconds() * float64(r.sampleRate))
	if frames <= 0 {
		r.stopped = true
		return
	}
	if r.fadeTotal > 0 && r.fadeLeft < frames {
		return
	}
	r.fadeTotal = frames
	r.fadeLeft = frames
}

// Stop ends the stream at the next Read
func (r *FadeReader) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

// Done reports whether the stream has ended
func (r *FadeReader) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped || r.pos >= len(r.pcm)
}

// Remaining is the number of bytes not yet read
func (r *FadeReader) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pcm) - r.pos
}

func (r *FadeReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.pos >= len(r.pcm) {
		return 0, io.EOF
	}
	p = p[:len(p)&^(frameBytes-1)]
	if len(p) == 0 {
		return 0, nil
	}
	if r.fadeTotal == 0 {
		n := copy(p, r.pcm[r.pos:])
		r.pos += n
		return n, nil
	}

	n := 0
	for n < len(p) && r.pos < len(r.pcm) && r.fadeLeft > 0 {
		g := float64(r.fadeLeft) / float64(r.fadeTotal)
		for i := 0; i < frameBytes; i += 2 {
			s := int16(binary.LittleEndian.Uint16(r.pcm[r.pos+i:]))
			binary.LittleEndian.PutUint16(p[n+i:], uint16(int16(float64(s)*g)))
		}
		n += frameBytes
		r.pos += frameBytes
		r.fadeLeft--
	}
	if r.fadeLeft <= 0 {
		r.stopped = true
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
