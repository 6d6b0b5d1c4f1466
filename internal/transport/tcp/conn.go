package tcp

import (
	"bufio"
	"net"
	"strings"
	"sync"
)

// Conn adapts a net.Conn to the newline-delimited line protocol. Writes
// are serialized so the router and the session handshake can share the
// write half; Close is idempotent so the registry and the session can
// both release it.
type Conn struct {
	nc net.Conn
	r  *bufio.Reader

	wmu sync.Mutex

	once     sync.Once
	closeErr error
}

// NewConn wraps an accepted or dialed net.Conn.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc, r: bufio.NewReader(nc)}
}

// ReadLine blocks for the next line. A final unterminated line before
// EOF is still returned; closing the conn unblocks the call.
func (c *Conn) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine sends one line to the peer.
func (c *Conn) WriteLine(text string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	_, err := c.nc.Write([]byte(text + "\n"))
	return err
}

// Close closes the underlying conn exactly once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

// RemoteAddr identifies the peer.
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}
