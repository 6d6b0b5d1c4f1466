package session

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/core"
)

// scriptConn is an in-memory session.Conn: tests feed lines in and
// observe what the server wrote back.
type scriptConn struct {
	in     chan string
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	out []string
}

func newScriptConn() *scriptConn {
	return &scriptConn{
		in:     make(chan string, 16),
		closed: make(chan struct{}),
	}
}

func (c *scriptConn) send(line string) { c.in <- line }

func (c *scriptConn) ReadLine() (string, error) {
	select {
	case line := <-c.in:
		return line, nil
	case <-c.closed:
		return "", io.EOF
	}
}

func (c *scriptConn) WriteLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, text)
	return nil
}

func (c *scriptConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *scriptConn) RemoteAddr() string { return "script:0" }

func (c *scriptConn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.out))
	copy(out, c.out)
	return out
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestHandler() (*Handler, *core.Registry) {
	reg := core.NewRegistry("midgard", "ODIN", "asgard", "niflheim")
	router := core.NewRouter(reg, testLogger())
	return NewHandler(reg, router, testLogger()), reg
}

// startSession runs the handler for conn and returns a channel closed
// when the session ends.
func startSession(h *Handler, conn *scriptConn) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(conn)
	}()
	return done
}

func waitForLine(t *testing.T, conn *scriptConn, substr string) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range conn.Lines() {
			if strings.Contains(line, substr) {
				return line
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected line containing %q, got %v", substr, conn.Lines())
	return ""
}

func waitRegistered(t *testing.T, reg *core.Registry, name string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Lookup(name); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s never registered", name)
}

func waitGone(t *testing.T, reg *core.Registry, name string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Lookup(name); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s never unregistered", name)
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}
}

func hasLine(conn *scriptConn, substr string) bool {
	for _, line := range conn.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
