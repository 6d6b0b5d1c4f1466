package http

import (
	"context"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/session"
)

// WSHandler upgrades HTTP connections and bridges them into the same
// session handler the TCP transport uses. One WebSocket text message
// carries one logical line.
type WSHandler struct {
	handler *session.Handler
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(handler *session.Handler, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{handler: handler, log: logger}
}

func (h *WSHandler) handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	ws := newWSConn(c.Request.Context(), conn, c.Request.RemoteAddr)
	defer ws.Close()
	// Run blocks for the session's lifetime.
	h.handler.Run(ws)
}

// wsConn adapts a WebSocket connection to the line protocol.
type wsConn struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	remote string

	once     sync.Once
	closeErr error
}

func newWSConn(ctx context.Context, conn *websocket.Conn, remote string) *wsConn {
	ctx, cancel := context.WithCancel(ctx)
	return &wsConn{ctx: ctx, cancel: cancel, conn: conn, remote: remote}
}

// ReadLine blocks for the next message. Close cancels the context,
// which unblocks a pending read (kick, shutdown).
func (w *wsConn) ReadLine() (string, error) {
	_, data, err := w.conn.Read(w.ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// WriteLine sends one line as a text message. The library serializes
// concurrent writers.
func (w *wsConn) WriteLine(text string) error {
	return w.conn.Write(w.ctx, websocket.MessageText, []byte(text))
}

// Close performs the closing handshake exactly once.
func (w *wsConn) Close() error {
	w.once.Do(func() {
		w.closeErr = w.conn.Close(websocket.StatusNormalClosure, "closing")
		w.cancel()
	})
	return w.closeErr
}

// RemoteAddr identifies the peer.
func (w *wsConn) RemoteAddr() string { return w.remote }
