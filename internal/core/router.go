package core

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/style"
)

// Console is the operator-facing sink the router surfaces messages to:
// traffic in the room the operator is focused on, and private messages
// addressed to the reserved admin name.
type Console interface {
	// RoomEcho receives a copy of chat and room-info lines delivered to
	// a room. The implementation decides whether the operator is
	// focused on that room.
	RoomEcho(room, line string)
	// OperatorLine prints one line on the operator's output.
	OperatorLine(line string)
}

// DeliverOpts controls a room fan-out.
type DeliverOpts struct {
	// Exclude names a member that must not receive the line, normally
	// the sender.
	Exclude string
	// From, when set, prefixes the text with the sender's name.
	From string
	// RoomInfo renders the text as a system notice instead of chat.
	RoomInfo bool
}

// Router relays lines between registered connections. It owns no state
// of its own: recipient sets are snapshotted under the registry lock
// and written outside it, so one dead or slow peer never stalls the
// rest of the room. A failed write unregisters that peer.
type Router struct {
	reg     *Registry
	console Console
	log     *zerolog.Logger
}

// NewRouter builds a router over the registry.
func NewRouter(reg *Registry, logger *zerolog.Logger) *Router {
	return &Router{reg: reg, log: logger}
}

// SetConsole attaches the operator sink. Must be called before any
// session traffic flows; the router works without one (tests).
func (rt *Router) SetConsole(c Console) { rt.console = c }

// DeliverTo writes one line to the named connection.
func (rt *Router) DeliverTo(name, text string) error {
	conn, ok := rt.reg.Lookup(name)
	if !ok {
		return ErrUnknownRecipient
	}
	if err := conn.WriteLine(text); err != nil {
		rt.dropPeer(name, err)
		return err
	}
	return nil
}

// DeliverToRoom writes a line to every member of the room except the
// excluded one. Returns the members whose write failed; those peers are
// unregistered after the fan-out completes.
func (rt *Router) DeliverToRoom(room, text string, opts DeliverOpts) ([]string, error) {
	line := text
	switch {
	case opts.From != "":
		line = style.Chat(opts.From, text)
	case opts.RoomInfo:
		line = style.RoomInfo(text)
	}

	targets, ok := rt.reg.roomTargets(room, opts.Exclude)
	if !ok {
		return nil, ErrUnknownRoom
	}

	var failed []string
	for _, t := range targets {
		if err := t.conn.WriteLine(line); err != nil {
			rt.log.Warn().Err(err).Str("name", t.name).Str("room", room).Msg("room delivery failed")
			failed = append(failed, t.name)
		}
	}

	// The operator eavesdrops on client chat and room notices, never on
	// messages the console sent itself.
	if rt.console != nil && (opts.From != "" || opts.RoomInfo) {
		rt.console.RoomEcho(room, line)
	}

	for _, name := range failed {
		rt.dropPeer(name, nil)
	}
	return failed, nil
}

// DeliverToAll fans a line out to every room.
func (rt *Router) DeliverToAll(text string) {
	for _, room := range rt.reg.Rooms() {
		_, _ = rt.DeliverToRoom(room, text, DeliverOpts{})
	}
}

// PrivateMessage relays a tagged line from one client to another. A
// message addressed to the reserved admin name surfaces on the console;
// an unknown recipient is reported back to the sender.
func (rt *Router) PrivateMessage(from, to, text string) error {
	line := style.Private(from, text)

	if conn, ok := rt.reg.Lookup(to); ok {
		if err := conn.WriteLine(line); err != nil {
			rt.dropPeer(to, err)
			return err
		}
		return nil
	}

	if to == rt.reg.AdminName() {
		if rt.console != nil {
			rt.console.OperatorLine(line)
		}
		return nil
	}

	_ = rt.DeliverTo(from, fmt.Sprintf("the user [%s] doesn't exist", to))
	return ErrUnknownRecipient
}

// dropPeer unregisters a peer whose write failed and notifies its old
// room. The recursion through DeliverToRoom terminates because each
// drop shrinks the registry.
func (rt *Router) dropPeer(name string, cause error) {
	old, err := rt.reg.Unregister(name)
	if err != nil {
		return // already gone, nothing to announce
	}
	rt.log.Info().Err(cause).Str("name", name).Str("room", old).Msg("dropped unreachable client")
	if old != "" {
		_, _ = rt.DeliverToRoom(old, fmt.Sprintf("%q has disconnected from %s!", name, old), DeliverOpts{RoomInfo: true})
	}
}
