package synth

import (
	"encoding/binary"
	"time"

	timestats "github.com/cwbudde/algo-dsp/stats/time"
)

// Channels is the number of interleaved channels in every timbre
const Channels = 2

// fullScale is the int16 value a normalized amplitude of 1.0 maps to
const fullScale = 1<<15 - 1

// Timbre is a rendered drum hit: interleaved stereo signed 16-bit PCM.
// It is built once by the bank and never modified afterwards, so any number
// of voices may read it concurrently.
type Timbre struct {
	Category   Category
	SampleRate int
	Ceiling    float64 // target peak the waveform was normalized to

	samples []int16
	pcm     []byte
}

func newTimbre(c Category, sampleRate int, ceiling float64, mono []int16) *Timbre {
	t := &Timbre{
		Category:   c,
		SampleRate: sampleRate,
		Ceiling:    ceiling,
		samples:    make([]int16, len(mono)*Channels),
		pcm:        make([]byte, len(mono)*Channels*2),
	}
	for i, s := range mono {
		for ch := 0; ch < Channels; ch++ {
			j := i*Channels + ch
			t.samples[j] = s
			binary.LittleEndian.PutUint16(t.pcm[j*2:], uint16(s))
		}
	}
	return t
}

// Samples returns the interleaved samples. Callers must not modify them.
func (t *Timbre) Samples() []int16 { return t.samples }

// Bytes returns the samples as little-endian PCM. Callers must not modify them.
func (t *Timbre) Bytes() []byte { return t.pcm }

// Frames is the length in sample frames
func (t *Timbre) Frames() int { return len(t.samples) / Channels }

// Channels is always 2; synthesis isn't spatialized
func (t *Timbre) Channels() int { return Channels }

// Duration is the playback length at the timbre's sample rate
func (t *Timbre) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(t.Frames()) * time.Second / time.Duration(t.SampleRate)
}

// Mono returns the first channel as floats in [-1,1]. Both channels carry
// the same signal.
func (t *Timbre) Mono() []float64 {
	out := make([]float64, t.Frames())
	for i := range out {
		out[i] = float64(t.samples[i*Channels]) / fullScale
	}
	return out
}

// Peak returns the largest absolute sample, normalized to [0,1]
func (t *Timbre) Peak() float64 {
	return timestats.Peak(t.Mono())
}
