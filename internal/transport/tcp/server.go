// Package tcp provides the primary transport: a TCP listener feeding
// accepted connections to session handlers, one goroutine per client.
package tcp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/session"
)

// Server accepts TCP connections and runs a session per connection.
type Server struct {
	addr    string
	handler *session.Handler
	log     *zerolog.Logger

	ln net.Listener
	wg sync.WaitGroup

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewServer builds a server; Listen must be called before Serve.
func NewServer(addr string, handler *session.Handler, logger *zerolog.Logger) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		log:     logger,
		conns:   make(map[*Conn]struct{}),
	}
}

// Listen binds the listening socket. Split from Serve so callers can
// bind to ":0" and read the resolved address before serving.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address. Valid after Listen.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until Shutdown closes the listener, then
// waits for in-flight sessions to drain.
func (s *Server) Serve() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		conn := NewConn(nc)
		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handler.Run(conn)
		}()
	}

	s.wg.Wait()
	return nil
}

// Shutdown stops accepting and closes every live connection, which
// unblocks each session's pending read.
func (s *Server) Shutdown() error {
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	return err
}

func (s *Server) track(conn *Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn *Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}
