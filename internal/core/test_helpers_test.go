package core

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeConn records written lines and can be switched to fail writes.
type fakeConn struct {
	mu      sync.Mutex
	lines   []string
	failing bool
	closed  int
}

func (c *fakeConn) WriteLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errBrokenPipe
	}
	c.lines = append(c.lines, text)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake:0" }

func (c *fakeConn) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = true
}

func (c *fakeConn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) hasLine(substr string) bool {
	for _, line := range c.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// newTestRegistry seeds the default three-room layout.
func newTestRegistry() *Registry {
	return NewRegistry("midgard", "ODIN", "asgard", "niflheim")
}

func mustRegister(t *testing.T, reg *Registry, name string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	if err := reg.Register(name, conn); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return conn
}
