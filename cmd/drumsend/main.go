package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"airdrums/synth"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "scale":
		err = runScale(ctx, os.Args[2:])
	case "caravan":
		err = runCaravan(ctx, os.Args[2:])
	case "hit":
		err = runHit(ctx, os.Args[2:])
	default:
		usage()
		return
	}

	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopped")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Drum pattern sender (MIDI over UDP)")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  scale    - Walk the kit piece by piece")
	fmt.Println("  caravan  - Play the Caravan groove with a tom fill every 8 bars")
	fmt.Println("  hit      - Send one note: hit [flags] NOTE [VELOCITY]")
	fmt.Println("")
	fmt.Println("Common flags: -host 127.0.0.1 -port 6000 -channel 0")
}

// target holds the flags every command shares
type target struct {
	host    string
	port    int
	channel int
}

func newFlags(name string) (*flag.FlagSet, *target) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	t := &target{}
	fs.StringVar(&t.host, "host", "127.0.0.1", "target host")
	fs.IntVar(&t.port, "port", 6000, "target port")
	fs.IntVar(&t.channel, "channel", 0, "MIDI channel 0-15")
	return fs, t
}

func (t *target) dial() (*sender, func(), error) {
	if t.channel < 0 || t.channel > 15 {
		return nil, nil, fmt.Errorf("channel %d out of range 0-15", t.channel)
	}
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &sender{w: conn, channel: uint8(t.channel)}, func() { conn.Close() }, nil
}

func (t *target) String() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func printLine(s string) { fmt.Println("  " + s) }

func runScale(ctx context.Context, args []string) error {
	fs, t := newFlags("scale")
	interval := fs.Duration("interval", 250*time.Millisecond, "time each note is held")
	loops := fs.Int("loops", 0, "times through the kit (0 = until ctrl+c)")
	fs.Parse(args)

	s, closeFn, err := t.dial()
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Printf("Sending drum notes to %s (ctrl+c to stop)\n\n", t)
	return s.playScale(ctx, *interval, *loops, printLine)
}

func runCaravan(ctx context.Context, args []string) error {
	fs, t := newFlags("caravan")
	tempo := fs.Int("tempo", 180, "tempo in BPM")
	bars := fs.Int("bars", 0, "bars to play (0 = until ctrl+c)")
	fs.Parse(args)

	if *tempo < 20 || *tempo > 400 {
		return fmt.Errorf("tempo %d out of range 20-400", *tempo)
	}
	s, closeFn, err := t.dial()
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Printf("Playing Caravan at %d BPM to %s (ctrl+c to stop)\n\n", *tempo, t)
	return s.playCaravan(ctx, *tempo, *bars, printLine)
}

func runHit(ctx context.Context, args []string) error {
	fs, t := newFlags("hit")
	hold := fs.Duration("hold", 100*time.Millisecond, "time before note off")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("hit needs a note number")
	}
	note, err := parse7bit(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("note: %w", err)
	}
	velocity := uint8(100)
	if fs.NArg() > 1 {
		if velocity, err = parse7bit(fs.Arg(1)); err != nil {
			return fmt.Errorf("velocity: %w", err)
		}
	}

	s, closeFn, err := t.dial()
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Printf("%s (note %d, vel %d) -> %s\n", synth.DrumName(note), note, velocity, t)
	return s.step(ctx, Step{{note, velocity}}, *hold)
}

func parse7bit(s string) (uint8, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 127 {
		return 0, fmt.Errorf("%d out of range 0-127", v)
	}
	return uint8(v), nil
}
