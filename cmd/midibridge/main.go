package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"airdrums/debug"
	"airdrums/midi"
)

const portTimeout = 3 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "bridge":
		err = bridge(os.Args[2:])
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI to UDP bridge")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - List MIDI input ports")
	fmt.Println("  bridge  - Forward notes from input ports: bridge -in NAME [-host H] [-port P]")
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.InPorts(portTimeout)
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("  (none)")
	}
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

func bridge(args []string) error {
	fs := flag.NewFlagSet("bridge", flag.ExitOnError)
	in := fs.String("in", "", "input port name (substring match, empty for all)")
	host := fs.String("host", "127.0.0.1", "listener host")
	port := fs.Int("port", 6000, "listener port")
	debugLog := fs.Bool("debug", false, "write debug log")
	fs.Parse(args)

	if *debugLog {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	var sent, failed atomic.Uint64
	w := midi.NewWatcher(*in, func(b []byte) {
		if _, err := conn.Write(b); err != nil {
			failed.Add(1)
			debug.Log("bridge", "send: %v", err)
			return
		}
		sent.Add(1)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go w.Run(ctx)

	fmt.Printf("Forwarding ports matching %q -> %s (ctrl+c to stop)\n", *in, addr)
	fmt.Println("Plug the device in any time - it's picked up automatically")
	for ev := range w.Events() {
		if ev.Err != nil {
			fmt.Printf("  %s: %s (%v)\n", ev.Type, ev.Name, ev.Err)
			continue
		}
		fmt.Printf("  %s: %s\n", ev.Type, ev.Name)
	}

	fmt.Printf("\n%d messages forwarded, %d failed\n", sent.Load(), failed.Load())
	return nil
}
