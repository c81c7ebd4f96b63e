package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
	"github.com/cwbudde/algo-vecmath"
)

// recipe describes how one category is rendered. render returns the raw
// waveform; the bank normalizes it to ceiling afterwards.
type recipe struct {
	duration float64 // seconds
	ceiling  float64
	render   func(s *sketch) ([]float64, error)
}

var recipes = [numCategories]recipe{
	Kick:        {0.5, 0.9, renderKick},
	Snare:       {0.2, 0.85, renderSnare},
	HiHatClosed: {0.05, 0.6, hihat(8000, 5, 80)},
	HiHatOpen:   {0.3, 0.5, hihat(7000, 3, 8)},
	TomLow:      {0.4, 0.8, tom(120)},
	TomMid:      {0.4, 0.8, tom(180)},
	TomHigh:     {0.4, 0.8, tom(250)},
	Crash:       {1.5, 0.6, renderCrash},
	Ride:        {1.0, 0.65, renderRide},
}

// sketch is the scratch state for rendering one timbre
type sketch struct {
	rate float64
	n    int
	t    []float64 // time of each sample in seconds
	gen  *signal.Generator
}

func newSketch(sampleRate int, duration float64, seed int64) *sketch {
	s := &sketch{
		rate: float64(sampleRate),
		n:    int(float64(sampleRate) * duration),
		gen: signal.NewGeneratorWithOptions(
			[]core.ProcessorOption{core.WithSampleRate(float64(sampleRate))},
			signal.WithSeed(seed),
		),
	}
	s.t = make([]float64, s.n)
	for i := range s.t {
		s.t[i] = float64(i) / s.rate
	}
	return s
}

// decay is the envelope e^(-rate*t)
func (s *sketch) decay(rate float64) []float64 {
	out := make([]float64, s.n)
	for i, t := range s.t {
		out[i] = math.Exp(-rate * t)
	}
	return out
}

// sweep integrates an instantaneous frequency into a running phase
func (s *sketch) sweep(freq func(t float64) float64) []float64 {
	out := make([]float64, s.n)
	phase := 0.0
	for i, t := range s.t {
		phase += 2 * math.Pi * freq(t) / s.rate
		out[i] = phase
	}
	return out
}

func (s *sketch) noise() ([]float64, error) {
	return s.gen.WhiteNoise(1, s.n)
}

// modulate multiplies x in place by (1 + depth*sin(2*pi*freq*t))
func (s *sketch) modulate(x []float64, freq, depth float64) {
	for i, t := range s.t {
		x[i] *= 1 + depth*math.Sin(2*math.Pi*freq*t)
	}
}

// mix adds gain*src into dst
func mix(dst, src []float64, gain float64) {
	scaled := make([]float64, len(src))
	vecmath.ScaleBlock(scaled, src, gain)
	vecmath.AddBlockInPlace(dst, scaled)
}

// renderKick is a sine swept from 150Hz down to a 40Hz floor with a noise click on top
func renderKick(s *sketch) ([]float64, error) {
	phase := s.sweep(func(t float64) float64 {
		return math.Max(150*math.Exp(-8*t), 40)
	})
	wave := make([]float64, s.n)
	for i, p := range phase {
		wave[i] = math.Sin(p)
	}
	vecmath.MulBlockInPlace(wave, s.decay(8))

	click, err := s.noise()
	if err != nil {
		return nil, err
	}
	vecmath.MulBlockInPlace(click, s.decay(100))
	mix(wave, click, 0.3)
	return wave, nil
}

// renderSnare blends a 200Hz body (30%) with wire noise (70%)
func renderSnare(s *sketch) ([]float64, error) {
	tone, err := s.gen.Sine(200, 1, s.n)
	if err != nil {
		return nil, err
	}
	vecmath.MulBlockInPlace(tone, s.decay(15))

	wires, err := s.noise()
	if err != nil {
		return nil, err
	}
	vecmath.MulBlockInPlace(wires, s.decay(12))

	wave := make([]float64, s.n)
	mix(wave, tone, 0.3)
	mix(wave, wires, 0.7)
	return wave, nil
}

// hihat ring-modulates noise with a high carrier for the metallic edge
func hihat(carrier, depth, rate float64) func(s *sketch) ([]float64, error) {
	return func(s *sketch) ([]float64, error) {
		wave, err := s.noise()
		if err != nil {
			return nil, err
		}
		s.modulate(wave, carrier, depth)
		vecmath.MulBlockInPlace(wave, s.decay(rate))
		return wave, nil
	}
}

// tom sweeps down from base with 2nd and 3rd harmonics at 30% and 10%
func tom(base float64) func(s *sketch) ([]float64, error) {
	return func(s *sketch) ([]float64, error) {
		phase := s.sweep(func(t float64) float64 {
			return base * math.Exp(-5*t)
		})
		wave := make([]float64, s.n)
		for i, p := range phase {
			wave[i] = math.Sin(p) + 0.3*math.Sin(2*p) + 0.1*math.Sin(3*p)
		}
		vecmath.MulBlockInPlace(wave, s.decay(7))
		return wave, nil
	}
}

// renderCrash shimmers noise with four simultaneous carriers and a long tail
func renderCrash(s *sketch) ([]float64, error) {
	wave, err := s.noise()
	if err != nil {
		return nil, err
	}
	for _, f := range []float64{3000, 5000, 8000, 12000} {
		s.modulate(wave, f, 0.3)
	}
	vecmath.MulBlockInPlace(wave, s.decay(2))
	return wave, nil
}

// renderRide is an 800Hz ping with its octave at half level over light noise
func renderRide(s *sketch) ([]float64, error) {
	wave, err := s.gen.Sine(800, 1, s.n)
	if err != nil {
		return nil, err
	}
	octave, err := s.gen.Sine(1600, 0.5, s.n)
	if err != nil {
		return nil, err
	}
	vecmath.AddBlockInPlace(wave, octave)

	wash, err := s.noise()
	if err != nil {
		return nil, err
	}
	mix(wave, wash, 0.3)
	vecmath.MulBlockInPlace(wave, s.decay(3))
	return wave, nil
}
