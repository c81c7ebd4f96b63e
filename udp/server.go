package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	applog "airdrums/debug"
)

// MaxPacket is the largest datagram read in one receive call
const MaxPacket = 2048

// Handler gets each datagram's payload. The slice is reused after the call
// returns.
type Handler func(data []byte)

// Server receives MIDI datagrams and hands them to a Handler
type Server struct {
	addr    string
	handler Handler

	mu   sync.Mutex
	conn net.PacketConn
}

// NewServer creates a server for host:port
func NewServer(addr string, handler Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// Listen binds the socket. Run calls it if needed; call it first to learn
// the bound address or fail early.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.conn = conn
	applog.Log("udp", "listening on %s", conn.LocalAddr())
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Run receives until ctx is cancelled or the socket fails for good
// (blocking - run in goroutine). A cancelled context is a clean stop and
// returns nil.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	// closing the socket unblocks ReadFrom
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	defer s.close()

	buf := make([]byte, MaxPacket)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				applog.Log("udp", "receive loop stopped")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			applog.Log("udp", "read: %v", err)
			// back off briefly so a persistent error can't spin
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		applog.LogEvery(200, "udp", "%d bytes from %s", n, from)
		s.handle(buf[:n])
	}
}

// handle keeps the loop alive if the handler panics
func (s *Server) handle(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			applog.Log("udp", "handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	s.handler(data)
}

func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
