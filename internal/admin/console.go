// Package admin implements the operator's privileged command loop. It
// shares the registry and router with client sessions and additionally
// holds the operator's room focus for eavesdropping.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/core"
	"github.com/arnvid/norsechat/internal/style"
)

const helpText = `commands:
	t       - display stats
	rooms   - display the list of rooms
	clients - display the list of clients
	all     - display all stats, rooms and clients
	kick    - kick a client
	sendall - send a message to all rooms
	send    - send a message to a single room
	p       - send a private message to a client
	join    - joins a room
	leave   - leaves the current room`

// Console reads operator commands from in and prints results to out.
// It implements core.Console so the router can mirror traffic from the
// focused room.
type Console struct {
	reg       *core.Registry
	router    *core.Router
	adminName string
	in        io.Reader
	out       io.Writer
	log       *zerolog.Logger

	mu    sync.Mutex
	focus string
}

// New builds a console. Production wires stdin/stdout; tests wire
// buffers.
func New(reg *core.Registry, router *core.Router, in io.Reader, out io.Writer, logger *zerolog.Logger) *Console {
	return &Console{
		reg:       reg,
		router:    router,
		adminName: reg.AdminName(),
		in:        in,
		out:       out,
		log:       logger,
	}
}

// Run loops over operator input until it is exhausted or the context is
// cancelled between lines.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, helpText)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Handle(scanner.Text())
	}
	return scanner.Err()
}

// Handle interprets one operator line.
func (c *Console) Handle(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	c.log.Debug().Str("input", line).Msg("admin input")

	switch strings.ToLower(fields[0]) {
	case "t", "stats":
		c.printStats()
	case "rooms":
		c.printRooms()
	case "clients":
		c.printClients()
	case "all":
		c.printStats()
		c.printRooms()
		c.printClients()
	case "kick":
		c.kick(strings.Join(fields[1:], " "))
	case "sendall", "broadcast":
		c.router.DeliverToAll(style.AdminLine(c.adminName, strings.Join(fields[1:], " ")))
	case "send":
		c.sendRoom(fields[1:])
	case "p", "private":
		c.sendClient(fields[1:])
	case "join":
		c.setFocus(strings.Join(fields[1:], " "))
	case "leave":
		c.setFocus("")
	case "?", "help":
		fmt.Fprintln(c.out, helpText)
	default:
		// With a focus set, anything unrecognized is a message to that
		// room.
		focus := c.Focus()
		if focus == "" {
			fmt.Fprintln(c.out, "invalid entry!")
			return
		}
		if _, err := c.router.DeliverToRoom(focus, style.AdminLine(c.adminName, line), core.DeliverOpts{}); err != nil {
			fmt.Fprintln(c.out, "invalid room")
		}
	}
}

// Focus returns the room the operator is listening to, or "".
func (c *Console) Focus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

func (c *Console) setFocus(room string) {
	c.mu.Lock()
	c.focus = room
	c.mu.Unlock()
}

// RoomEcho implements core.Console: traffic for the focused room is
// copied to the operator's output.
func (c *Console) RoomEcho(room, line string) {
	if c.Focus() == room {
		fmt.Fprintln(c.out, line)
	}
}

// OperatorLine implements core.Console.
func (c *Console) OperatorLine(line string) {
	fmt.Fprintln(c.out, line)
}

// kick evicts a client: a forced notice, then unregistration (which
// closes the connection and unblocks that session's read), then the
// disconnect notice to its old room.
func (c *Console) kick(name string) {
	conn, ok := c.reg.Lookup(name)
	if !ok {
		fmt.Fprintln(c.out, "invalid client_name. Usage: kick <client_name>")
		return
	}

	_ = conn.WriteLine(fmt.Sprintf("%s has kicked you out of the halls of chatting!", c.adminName))

	old, err := c.reg.Unregister(name)
	if err != nil {
		return // quit on its own while we were typing
	}
	c.log.Info().Str("name", name).Str("room", old).Msg("client kicked")
	if old != "" {
		_, _ = c.router.DeliverToRoom(old, fmt.Sprintf("%q has disconnected from %s!", name, old), core.DeliverOpts{RoomInfo: true})
	}
}

func (c *Console) sendRoom(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: send <room> <message>")
		return
	}
	line := style.AdminLine(c.adminName, strings.Join(args[1:], " "))
	if _, err := c.router.DeliverToRoom(args[0], line, core.DeliverOpts{}); err != nil {
		fmt.Fprintln(c.out, "invalid room")
	}
}

func (c *Console) sendClient(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: p <client_name> <message>")
		return
	}
	line := style.AdminLine(c.adminName, strings.Join(args[1:], " "))
	if err := c.router.DeliverTo(args[0], line); err != nil {
		fmt.Fprintf(c.out, "the user [%s] doesn't exist\n", args[0])
	}
}

func (c *Console) printStats() {
	st := c.reg.Stats()
	fmt.Fprintf(c.out, "Number of clients: %d\n", st.Clients)
	fmt.Fprintf(c.out, "Number of rooms: %d\n", st.Rooms)
	fmt.Fprintf(c.out, "Most used room: %s, %d client(s)\n", st.BusiestRoom, st.BusiestSize)
	if focus := c.Focus(); focus != "" {
		fmt.Fprintf(c.out, "Server Admin listening to room: %s\n", focus)
	}
}

func (c *Console) printRooms() {
	fmt.Fprintln(c.out, "Rooms:")
	rooms := c.reg.RoomMembers()
	for _, room := range sortedKeys(rooms) {
		fmt.Fprintf(c.out, "\t%s, %d client(s)\n", room, len(rooms[room]))
	}
}

func (c *Console) printClients() {
	fmt.Fprintln(c.out, "Clients: (NAME, ROOM)")
	rooms := c.reg.RoomMembers()
	for _, room := range sortedKeys(rooms) {
		for _, name := range rooms[room] {
			fmt.Fprintf(c.out, "\t%s, %s\n", name, room)
		}
	}
}

func sortedKeys(rooms map[string][]string) []string {
	keys := make([]string, 0, len(rooms))
	for room := range rooms {
		keys = append(keys, room)
	}
	sort.Strings(keys)
	return keys
}
