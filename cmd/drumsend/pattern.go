package main

import (
	"context"
	"fmt"
	"io"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"airdrums/synth"
)

// Strike is one drum hit inside a step
type Strike struct {
	Note     uint8
	Velocity uint8
}

// Step is everything struck together; an empty step is a rest
type Step []Strike

const (
	kick      = 36
	snare     = 38
	hatClosed = 42
	hatOpen   = 46
	crash     = 49
	ride      = 51
	tomLow    = 45
	tomMid    = 47
	tomHigh   = 50
)

// scale walks the kit one piece at a time
var scale = []Strike{
	{kick, 100}, {snare, 110}, {hatClosed, 90}, {hatOpen, 85},
	{crash, 95}, {kick, 120}, {snare, 100}, {hatClosed, 80},
	{tomMid, 90}, {48, 90}, {tomHigh, 90}, {ride, 85},
}

// caravan groove on eighths: bar A keeps time on the closed hat, bar B on the ride
var (
	caravanHat = []Step{
		{{kick, 110}, {hatClosed, 85}},
		{{hatClosed, 70}},
		{{snare, 95}, {hatClosed, 80}},
		{{hatClosed, 65}},
		{{kick, 105}},
		{{hatClosed, 70}},
		{{snare, 100}, {hatClosed, 85}},
		{{hatClosed, 75}},
	}
	caravanRide = []Step{
		{{kick, 110}, {ride, 80}},
		{{ride, 65}},
		{{snare, 95}, {ride, 75}},
		{{ride, 60}},
		{{kick, 105}, {ride, 75}},
		{{ride, 70}},
		{{snare, 100}, {ride, 80}},
		{{ride, 65}},
	}
	// tom cascade on sixteenths
	caravanFill = []Step{
		{{tomHigh, 100}},
		{{tomHigh, 95}},
		{{tomMid, 105}},
		{{tomMid, 100}},
		{{tomLow, 110}},
		{{tomLow, 105}},
		{{kick, 115}, {crash, 110}},
		{},
	}
)

// caravanBar returns the steps for bar n (1-based) and how many steps fit
// in a beat
func caravanBar(n int) (steps []Step, perBeat int, label string) {
	switch {
	case n%8 == 0:
		return caravanFill, 4, "fill"
	case n%2 == 1:
		return caravanHat, 2, "groove (hi-hat)"
	default:
		return caravanRide, 2, "groove (ride)"
	}
}

// beat is the length of a quarter note at tempo
func beat(tempo int) time.Duration {
	return time.Minute / time.Duration(tempo)
}

// sender writes note messages, one datagram each
type sender struct {
	w       io.Writer
	channel uint8
}

func (s *sender) on(st Strike) error {
	_, err := s.w.Write(gomidi.NoteOn(s.channel, st.Note, st.Velocity).Bytes())
	return err
}

func (s *sender) off(st Strike) error {
	_, err := s.w.Write(gomidi.NoteOffVelocity(s.channel, st.Note, 64).Bytes())
	return err
}

// step strikes every note in st, holds for d, then releases them
func (s *sender) step(ctx context.Context, st Step, d time.Duration) error {
	for _, h := range st {
		if err := s.on(h); err != nil {
			return fmt.Errorf("note on %d: %w", h.Note, err)
		}
	}
	if err := sleep(ctx, d); err != nil {
		return err
	}
	for _, h := range st {
		if err := s.off(h); err != nil {
			return fmt.Errorf("note off %d: %w", h.Note, err)
		}
	}
	return nil
}

func (s *sender) playScale(ctx context.Context, interval time.Duration, loops int, log func(string)) error {
	for i := 0; loops <= 0 || i < loops; i++ {
		for _, h := range scale {
			log(fmt.Sprintf("Playing: %s (note %d, vel %d)", synth.DrumName(h.Note), h.Note, h.Velocity))
			if err := s.step(ctx, Step{h}, interval); err != nil {
				return err
			}
			if err := sleep(ctx, 50*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sender) playCaravan(ctx context.Context, tempo, bars int, log func(string)) error {
	for bar := 1; bars <= 0 || bar <= bars; bar++ {
		steps, perBeat, label := caravanBar(bar)
		log(fmt.Sprintf("[Bar %d] %s", bar, label))
		d := beat(tempo) / time.Duration(perBeat)
		for _, st := range steps {
			if err := s.step(ctx, st, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
