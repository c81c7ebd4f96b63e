package synth

import (
	"errors"
	"math"
	"testing"
	"time"

	algofft "github.com/MeKo-Christian/algo-fft"
	timestats "github.com/cwbudde/algo-dsp/stats/time"
)

const testRate = 44100

func newTestBank(t *testing.T, opts ...BankOption) *Bank {
	t.Helper()
	b, err := NewBank(testRate, append([]BankOption{WithSeed(1)}, opts...)...)
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	return b
}

func left(tb *Timbre) []float64 {
	return tb.Mono()
}

func TestTimbrePeak(t *testing.T) {
	tests := []struct {
		name string
		mono []int16
		want float64
	}{
		{"empty", nil, 0},
		{"silent", []int16{0, 0, 0}, 0},
		{"negative", []int16{100, -16384, 2000}, 16384.0 / fullScale},
		{"full", []int16{fullScale, -5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTimbre(Kick, 1000, 0.5, tt.mono)
			if got := tb.Peak(); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("Peak() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBankPeaksWithinCeiling(t *testing.T) {
	b := newTestBank(t)
	const lsb = 4.0 / fullScale // dither and noise shaping may move the peak by a few steps

	for _, c := range Categories() {
		tb := b.Timbre(c)
		if tb == nil {
			t.Fatalf("Timbre(%s) = nil", c)
		}
		if tb.Ceiling < 0.5 || tb.Ceiling > 0.9 {
			t.Errorf("%s ceiling = %v, want within [0.5, 0.9]", c, tb.Ceiling)
		}
		peak := tb.Peak()
		if peak > tb.Ceiling+lsb {
			t.Errorf("%s peak = %v, above ceiling %v", c, peak, tb.Ceiling)
		}
		if peak < tb.Ceiling-0.01 {
			t.Errorf("%s peak = %v, want close to ceiling %v", c, peak, tb.Ceiling)
		}
		if peak < 1e-3 {
			t.Errorf("%s is silent", c)
		}
	}
}

func TestBankDurations(t *testing.T) {
	b := newTestBank(t)
	want := map[Category]time.Duration{
		Kick:        500 * time.Millisecond,
		Snare:       200 * time.Millisecond,
		HiHatClosed: 50 * time.Millisecond,
		HiHatOpen:   300 * time.Millisecond,
		TomLow:      400 * time.Millisecond,
		TomMid:      400 * time.Millisecond,
		TomHigh:     400 * time.Millisecond,
		Crash:       1500 * time.Millisecond,
		Ride:        time.Second,
	}
	for c, d := range want {
		tb := b.Timbre(c)
		if got := tb.Duration(); got < d-time.Millisecond || got > d {
			t.Errorf("%s duration = %v, want %v", c, got, d)
		}
		if tb.Channels() != 2 {
			t.Errorf("%s channels = %d, want 2", c, tb.Channels())
		}
		if len(tb.Bytes()) != len(tb.Samples())*2 {
			t.Errorf("%s pcm length = %d, want %d", c, len(tb.Bytes()), len(tb.Samples())*2)
		}
	}
}

func TestBankStereoChannelsMatch(t *testing.T) {
	b := newTestBank(t)
	for _, c := range Categories() {
		s := b.Timbre(c).Samples()
		for i := 0; i < len(s); i += 2 {
			if s[i] != s[i+1] {
				t.Fatalf("%s frame %d: left %d != right %d", c, i/2, s[i], s[i+1])
			}
		}
	}
}

func TestBankRebuildSameShape(t *testing.T) {
	a, err := NewBank(48000)
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	b, err := NewBank(48000)
	if err != nil {
		t.Fatalf("NewBank() error = %v", err)
	}
	for _, c := range Categories() {
		ta, tb := a.Timbre(c), b.Timbre(c)
		if ta.Frames() != tb.Frames() || ta.Channels() != tb.Channels() {
			t.Errorf("%s: %d frames x %d ch vs %d frames x %d ch", c, ta.Frames(), ta.Channels(), tb.Frames(), tb.Channels())
		}
	}
}

func TestBankSeedIsDeterministic(t *testing.T) {
	a := newTestBank(t)
	b := newTestBank(t)
	sa, sb := a.Timbre(Crash).Samples(), b.Timbre(Crash).Samples()
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, sa[i], sb[i])
		}
	}
}

func TestNewBankRejectsSampleRate(t *testing.T) {
	for _, rate := range []int{0, -44100, 100, 400000} {
		if _, err := NewBank(rate); !errors.Is(err, ErrSampleRate) {
			t.Errorf("NewBank(%d) error = %v, want ErrSampleRate", rate, err)
		}
	}
}

func TestTimbresDecay(t *testing.T) {
	b := newTestBank(t)
	for _, c := range Categories() {
		x := left(b.Timbre(c))
		q := len(x) / 4
		head := timestats.RMS(x[:q])
		tail := timestats.RMS(x[len(x)-q:])
		if tail >= head {
			t.Errorf("%s: tail RMS %v >= head RMS %v", c, tail, head)
		}
	}
}

// centroid returns the spectral centroid in Hz of the first n samples
func centroid(t *testing.T, x []float64, n int) float64 {
	t.Helper()
	in := make([]complex128, n)
	for i := 0; i < n && i < len(x); i++ {
		// Hann window
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		in[i] = complex(x[i]*w, 0)
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		t.Fatalf("NewPlan64() error = %v", err)
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	var num, den float64
	for k := 1; k <= n/2; k++ {
		mag := math.Hypot(real(out[k]), imag(out[k]))
		num += float64(k) * testRate / float64(n) * mag
		den += mag
	}
	return num / den
}

func TestSpectralShape(t *testing.T) {
	b := newTestBank(t)
	const n = 2048

	kick := centroid(t, left(b.Timbre(Kick)), n)
	tomLow := centroid(t, left(b.Timbre(TomLow)), n)
	tomHigh := centroid(t, left(b.Timbre(TomHigh)), n)
	closed := centroid(t, left(b.Timbre(HiHatClosed)), n)
	crash := centroid(t, left(b.Timbre(Crash)), n)

	if kick > 2000 {
		t.Errorf("kick centroid = %.0fHz, want low", kick)
	}
	if closed < 4000 {
		t.Errorf("closed hihat centroid = %.0fHz, want bright", closed)
	}
	if crash < 4000 {
		t.Errorf("crash centroid = %.0fHz, want bright", crash)
	}
	if tomLow >= tomHigh {
		t.Errorf("tom centroids low %.0fHz >= high %.0fHz", tomLow, tomHigh)
	}
}

func TestBankLookup(t *testing.T) {
	b := newTestBank(t)
	tests := []struct {
		note uint8
		want Category
	}{
		{36, Kick},
		{38, Snare},
		{42, HiHatClosed},
		{46, HiHatOpen},
		{45, TomMid},
		{47, TomLow},
		{50, TomHigh},
		{49, Crash},
		{51, Ride},
		{127, Snare},
		{0, Snare},
	}
	for _, tt := range tests {
		if got := b.Lookup(tt.note).Category; got != tt.want {
			t.Errorf("Lookup(%d) = %s, want %s", tt.note, got, tt.want)
		}
	}
	if b.Timbre(Category(99)) != nil {
		t.Error("Timbre(99) != nil")
	}
}
