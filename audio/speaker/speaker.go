// Package speaker plays timbres through the system audio device with oto.
package speaker

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/google/uuid"

	"airdrums/audio"
	"airdrums/debug"
	"airdrums/synth"
)

const (
	DefaultMaxVoices = 32
	reapInterval     = 50 * time.Millisecond

	// playerBuffer is how much audio a player pulls ahead of the device.
	// A release fade only shapes audio not yet pulled, so this stays short.
	playerBuffer = 15 * time.Millisecond

	frameBytes = synth.Channels * 2
)

// player is the part of *oto.Player the output drives
type player interface {
	SetBufferSize(bufferSize int)
	SetVolume(volume float64)
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// device is the part of *oto.Context the output drives
type device interface {
	NewPlayer(r io.Reader) player
	Suspend() error
}

type otoDevice struct {
	ctx *oto.Context
}

func (d otoDevice) NewPlayer(r io.Reader) player { return d.ctx.NewPlayer(r) }
func (d otoDevice) Suspend() error               { return d.ctx.Suspend() }

// Output implements audio.Output and audio.Finisher. Every voice gets its
// own oto player and oto mixes them on its audio thread.
type Output struct {
	dev        device
	sampleRate int
	maxVoices  int
	bufferSize int

	mu       sync.Mutex
	voices   map[*voice]struct{}
	onFinish func(id uuid.UUID)

	stopChan chan struct{}
	doneChan chan struct{}
	reaping  bool
	closed   bool
}

// New opens the audio device at sampleRate, signed 16-bit stereo.
// oto allows one context per process.
func New(sampleRate, maxVoices int) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: synth.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   10 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	o := newOutput(otoDevice{ctx}, sampleRate, maxVoices)
	o.reaping = true
	go o.reapLoop()

	debug.Log("audio", "oto context ready: %dHz, %d voices, %d byte player buffers", sampleRate, o.maxVoices, o.bufferSize)
	return o, nil
}

func newOutput(dev device, sampleRate, maxVoices int) *Output {
	if maxVoices <= 0 {
		maxVoices = DefaultMaxVoices
	}
	return &Output{
		dev:        dev,
		sampleRate: sampleRate,
		maxVoices:  maxVoices,
		bufferSize: bufferBytes(sampleRate, playerBuffer),
		voices:     make(map[*voice]struct{}),
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// bufferBytes is d of audio rounded down to whole frames, at least one frame
func bufferBytes(sampleRate int, d time.Duration) int {
	frames := int(d * time.Duration(sampleRate) / time.Second)
	return max(frames, 1) * frameBytes
}

// OnFinish registers fn to be called with the id of every voice that ends
// on its own. It is called without the output's lock held.
func (o *Output) OnFinish(fn func(id uuid.UUID)) {
	o.mu.Lock()
	o.onFinish = fn
	o.mu.Unlock()
}

// Play starts a new player for t. It fails with audio.ErrNoVoice when
// maxVoices players are already alive.
func (o *Output) Play(id uuid.UUID, t *synth.Timbre, gain float64) (audio.Voice, error) {
	if t.SampleRate != o.sampleRate {
		return nil, fmt.Errorf("timbre %s rendered at %dHz, device runs at %dHz", t.Category, t.SampleRate, o.sampleRate)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, fmt.Errorf("%w: output closed", audio.ErrNoVoice)
	}
	if len(o.voices) >= o.maxVoices {
		return nil, audio.ErrNoVoice
	}

	r := audio.NewFadeReader(t.Bytes(), o.sampleRate)
	p := o.dev.NewPlayer(r)
	// Play fills the buffer synchronously; keep it small so Fade still
	// has most of the hit to work on
	p.SetBufferSize(o.bufferSize)
	p.SetVolume(clamp01(gain))
	p.Play()

	v := &voice{id: id, player: p, reader: r}
	o.voices[v] = struct{}{}
	return v, nil
}

// Voices returns how many players are alive
func (o *Output) Voices() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.voices)
}

// reapLoop closes players once they've drained
func (o *Output) reapLoop() {
	defer close(o.doneChan)

	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopChan:
			return
		case <-ticker.C:
			o.reap()
		}
	}
}

// reap closes drained players and reports them. Returns how many ended.
func (o *Output) reap() int {
	o.mu.Lock()
	var finished []uuid.UUID
	for v := range o.voices {
		if v.player.IsPlaying() {
			continue
		}
		if err := v.player.Close(); err != nil {
			debug.Log("audio", "close player: %v", err)
		}
		delete(o.voices, v)
		finished = append(finished, v.id)
	}
	fn := o.onFinish
	o.mu.Unlock()

	// the engine takes its own lock in the callback, and holds it while
	// calling Play
	if fn != nil {
		for _, id := range finished {
			fn(id)
		}
	}
	return len(finished)
}

// Close stops every player and suspends the device. Later calls do nothing.
func (o *Output) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	close(o.stopChan)
	for v := range o.voices {
		v.Stop()
		v.player.Close()
		delete(o.voices, v)
	}
	o.mu.Unlock()

	if o.reaping {
		<-o.doneChan
	}
	return o.dev.Suspend()
}

type voice struct {
	id     uuid.UUID
	player player
	reader *audio.FadeReader
}

func (v *voice) Fade(d time.Duration) { v.reader.Fade(d) }

func (v *voice) Playing() bool { return v.player.IsPlaying() }

func (v *voice) Stop() {
	v.reader.Stop()
	v.player.Pause()
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
