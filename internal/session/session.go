// Package session drives the per-connection state machine: the name
// handshake, the read loop with command dispatch, and termination
// through the registry.
package session

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/core"
	"github.com/arnvid/norsechat/internal/style"
	"github.com/arnvid/norsechat/internal/utils"
)

// Conn is the bidirectional line stream a session drives. The write
// half is handed to the registry at handshake completion.
type Conn interface {
	core.Conn
	// ReadLine blocks for the next line, stripped of its terminator.
	// It must unblock with an error once Close is called, from any
	// goroutine.
	ReadLine() (string, error)
}

// Handler runs sessions against one registry/router pair. It is
// stateless across connections and safe for concurrent use.
type Handler struct {
	reg    *core.Registry
	router *core.Router
	log    *zerolog.Logger
}

// NewHandler builds a session handler.
func NewHandler(reg *core.Registry, router *core.Router, logger *zerolog.Logger) *Handler {
	return &Handler{reg: reg, router: router, log: logger}
}

// Run takes a freshly accepted connection through handshake, the
// command loop, and termination. It returns when the peer quits, the
// transport fails, or the connection is closed out from under the
// pending read (kick, shutdown).
func (h *Handler) Run(conn Conn) {
	logger := h.log.With().
		Str("session_id", utils.NewSessionID()).
		Str("remote", conn.RemoteAddr()).
		Logger()

	name, err := h.negotiate(conn, &logger)
	if err != nil {
		return
	}
	logger = logger.With().Str("name", name).Logger()
	logger.Info().Msg("client connected")

	h.announceJoin(name, h.reg.DefaultRoom())

	for {
		line, err := conn.ReadLine()
		if err != nil {
			logger.Debug().Err(err).Msg("read loop ended")
			h.disconnect(name, &logger)
			return
		}
		if h.dispatch(name, line, &logger) {
			return
		}
	}
}

// negotiate reads the requested name and registers it. Any failure
// sends one explanatory line and closes the connection; the caller
// keeps accepting, so there is no retry loop here.
func (h *Handler) negotiate(conn Conn, logger *zerolog.Logger) (string, error) {
	line, err := conn.ReadLine()
	if err != nil {
		logger.Debug().Err(err).Msg("connection lost before handshake")
		_ = conn.Close()
		return "", err
	}

	name := firstToken(line)
	if err := h.reg.Register(name, conn); err != nil {
		logger.Info().Str("code", core.ErrorCode(err)).Str("requested", name).Msg("handshake rejected")
		_ = conn.WriteLine(handshakeError(err))
		_ = conn.Close()
		return "", err
	}
	return name, nil
}

// dispatch classifies one line as a command or room chat. Returns true
// when the session is over.
func (h *Handler) dispatch(name, line string, logger *zerolog.Logger) (done bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	// A lone NUL is a liveness probe from the client.
	if fields[0] == "\x00" {
		return false
	}

	switch fields[0] {
	case "%p":
		h.privateMessage(name, fields)
	case "%c":
		h.changeRoom(name, strings.Join(fields[1:], " "))
	case "%r":
		h.listRooms(name)
	case "%a":
		h.listAllUsers(name)
	case "%u":
		h.listRoomUsers(name)
	case "%t":
		h.listRooms(name)
		h.listAllUsers(name)
	case "%q":
		h.disconnect(name, logger)
		return true
	default:
		if strings.HasPrefix(fields[0], "%") {
			logger.Warn().Str("token", fields[0]).Msg("unrecognized command")
			return false
		}
		room, ok := h.reg.LocateRoom(name)
		if !ok {
			// Kicked between reads; the closed conn ends the loop on
			// the next iteration.
			return false
		}
		_, _ = h.router.DeliverToRoom(room, line, core.DeliverOpts{From: name, Exclude: name})
	}
	return false
}

func (h *Handler) privateMessage(name string, fields []string) {
	if len(fields) < 3 {
		_ = h.router.DeliverTo(name, "usage: %p <username> <message>")
		return
	}
	_ = h.router.PrivateMessage(name, fields[1], strings.Join(fields[2:], " "))
}

// changeRoom migrates the client and emits the leave, welcome, and join
// notices. Changing to the current room is a silent no-op.
func (h *Handler) changeRoom(name, room string) {
	if room == "" {
		_ = h.router.DeliverTo(name, "usage: %c <room_name>")
		return
	}

	old, count, err := h.reg.MoveToRoom(name, room)
	if err != nil {
		_ = h.router.DeliverTo(name, "you are not connected to any room")
		return
	}
	if old == room {
		return
	}

	_, _ = h.router.DeliverToRoom(old, fmt.Sprintf("%q has left %s!", name, old), core.DeliverOpts{RoomInfo: true})
	h.welcome(name, room, count)
	_, _ = h.router.DeliverToRoom(room, fmt.Sprintf("%q has joined %s!", name, room), core.DeliverOpts{RoomInfo: true})
}

// announceJoin emits the welcome and join notices for a client that was
// just placed in a room by registration.
func (h *Handler) announceJoin(name, room string) {
	members, err := h.reg.Members(room)
	if err != nil {
		return
	}
	h.welcome(name, room, len(members))
	_, _ = h.router.DeliverToRoom(room, fmt.Sprintf("%q has joined %s!", name, room), core.DeliverOpts{RoomInfo: true})
}

func (h *Handler) welcome(name, room string, count int) {
	_ = h.router.DeliverTo(name, fmt.Sprintf("Joining %s...", room))
	_ = h.router.DeliverTo(name, fmt.Sprintf("Welcome to %s!\t\t%d users in this room!", style.RoomName(room), count))
}

func (h *Handler) listRooms(name string) {
	_ = h.router.DeliverTo(name, "List of Rooms:")
	_ = h.router.DeliverTo(name, "\t"+strings.Join(h.reg.Rooms(), ", "))
}

func (h *Handler) listAllUsers(name string) {
	_ = h.router.DeliverTo(name, "List of Users:")
	_ = h.router.DeliverTo(name, "\t"+strings.Join(h.reg.Names(), ", "))
}

func (h *Handler) listRoomUsers(name string) {
	room, ok := h.reg.LocateRoom(name)
	if !ok {
		return
	}
	members, err := h.reg.Members(room)
	if err != nil {
		return
	}
	_ = h.router.DeliverTo(name, fmt.Sprintf("List of Users in %s:", room))
	_ = h.router.DeliverTo(name, "\t"+strings.Join(members, ", "))
}

// disconnect removes the client and notifies its old room. A client
// already unregistered by a kick is left alone.
func (h *Handler) disconnect(name string, logger *zerolog.Logger) {
	old, err := h.reg.Unregister(name)
	if err != nil {
		return
	}
	logger.Info().Str("room", old).Msg("client disconnected")
	if old != "" {
		_, _ = h.router.DeliverToRoom(old, fmt.Sprintf("%q has disconnected from %s!", name, old), core.DeliverOpts{RoomInfo: true})
	}
}

// handshakeError maps a registration failure to the line the peer sees
// before the connection closes.
func handshakeError(err error) string {
	switch core.ErrorCode(err) {
	case core.ErrCodeNameTaken:
		return "This username already exist"
	default:
		return "Invalid username!"
	}
}

// firstToken trims the line and keeps the first whitespace-delimited
// token, which may be empty.
func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
