package udp

import (
	"context"
	"net"
	"slices"
	"sync"
	"testing"
	"time"
)

func startServer(t *testing.T, h Handler) (*Server, context.CancelFunc, <-chan error) {
	t.Helper()
	s := NewServer("127.0.0.1:0", h)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return s, cancel, done
}

func send(t *testing.T, addr net.Addr, payload []byte) {
	t.Helper()
	conn, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func TestServerDelivers(t *testing.T) {
	got := make(chan []byte, 4)
	s, cancel, done := startServer(t, func(data []byte) {
		got <- slices.Clone(data)
	})
	defer cancel()

	send(t, s.Addr(), []byte{0x99, 0x24, 0x64})

	select {
	case data := <-got:
		if !slices.Equal(data, []byte{0x99, 0x24, 0x64}) {
			t.Fatalf("payload = % X", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no packet delivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if s.Addr() != nil {
		t.Fatal("Addr() still set after Run returned")
	}
}

func TestServerSurvivesHandlerPanic(t *testing.T) {
	var mu sync.Mutex
	var seen [][]byte
	got := make(chan struct{}, 4)
	s, cancel, done := startServer(t, func(data []byte) {
		if data[0] == 0xFF {
			panic("bad packet")
		}
		mu.Lock()
		seen = append(seen, slices.Clone(data))
		mu.Unlock()
		got <- struct{}{}
	})
	defer func() {
		cancel()
		<-done
	}()

	send(t, s.Addr(), []byte{0xFF})
	send(t, s.Addr(), []byte{0x90, 0x26, 0x40})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("server stopped delivering after handler panic")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0][1] != 0x26 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestListenBadAddress(t *testing.T) {
	s := NewServer("not-an-address", func([]byte) {})
	if err := s.Listen(); err == nil {
		t.Fatal("Listen() error = nil, want error")
	}
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	s := NewServer("127.0.0.1:0", func([]byte) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
