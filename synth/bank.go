package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/dither"
	"github.com/cwbudde/algo-dsp/dsp/signal"

	"airdrums/debug"
)

// ErrSampleRate is returned for sample rates the bank can't render at
var ErrSampleRate = errors.New("synth: unsupported sample rate")

const (
	MinSampleRate     = 8000
	MaxSampleRate     = 192000
	DefaultSampleRate = 44100
)

// Bank holds one rendered timbre per category plus the note route used to
// pick between them. It is immutable once built.
type Bank struct {
	sampleRate int
	route      *Route
	timbres    [numCategories]*Timbre
}

// BankOption configures NewBank
type BankOption func(*bankConfig)

type bankConfig struct {
	seed  int64
	route *Route
}

// WithSeed fixes the noise seed so repeated builds render identical samples
func WithSeed(seed int64) BankOption {
	return func(c *bankConfig) {
		c.seed = seed
	}
}

// WithRoute selects the note mapping (GM by default)
func WithRoute(r *Route) BankOption {
	return func(c *bankConfig) {
		if r != nil {
			c.route = r
		}
	}
}

// NewBank renders every category at sampleRate
func NewBank(sampleRate int, opts ...BankOption) (*Bank, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrSampleRate, sampleRate, MinSampleRate, MaxSampleRate)
	}

	cfg := bankConfig{seed: time.Now().UnixNano(), route: GM}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	b := &Bank{sampleRate: sampleRate, route: cfg.route}
	start := time.Now()
	for _, c := range Categories() {
		t, err := render(c, sampleRate, cfg.seed+int64(c))
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", c, err)
		}
		b.timbres[c] = t
	}
	debug.Log("synth", "rendered %d timbres at %dHz in %s (route %s)", numCategories, sampleRate, time.Since(start), b.route.Name)

	return b, nil
}

func render(c Category, sampleRate int, seed int64) (*Timbre, error) {
	r := recipes[c]
	s := newSketch(sampleRate, r.duration, seed)

	wave, err := r.render(s)
	if err != nil {
		return nil, err
	}
	wave, err = signal.Normalize(wave, r.ceiling)
	if err != nil {
		return nil, err
	}

	q, err := dither.NewQuantizer(float64(sampleRate),
		dither.WithBitDepth(16),
		dither.WithRNG(rand.New(rand.NewPCG(uint64(seed), uint64(c)))),
	)
	if err != nil {
		return nil, err
	}
	mono := make([]int16, len(wave))
	for i, v := range wave {
		mono[i] = int16(q.ProcessInteger(v))
	}

	return newTimbre(c, sampleRate, r.ceiling, mono), nil
}

// SampleRate the bank was rendered at
func (b *Bank) SampleRate() int { return b.sampleRate }

// Route is the note mapping used by Lookup
func (b *Bank) Route() *Route { return b.route }

// Timbre returns the rendered timbre for c, or nil if c is not a category
func (b *Bank) Timbre(c Category) *Timbre {
	if !c.Valid() {
		return nil
	}
	return b.timbres[c]
}

// Lookup resolves a note through the route; unmapped notes get the snare
func (b *Bank) Lookup(note uint8) *Timbre {
	return b.timbres[b.route.Category(note)]
}
