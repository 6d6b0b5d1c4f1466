package core

import (
	"sort"
	"sync"
)

// Registry is the authoritative name -> connection directory composed
// with the room table. Every registered name is a member of exactly one
// room, and every room member is registered; all mutation happens under
// a single mutex so no reader can observe a name in zero or two rooms.
type Registry struct {
	mu          sync.RWMutex
	clients     map[string]Conn
	rooms       map[string]map[string]struct{}
	memberRoom  map[string]string
	defaultRoom string
	adminName   string
}

// Stats is a consistent point-in-time summary of the registry.
type Stats struct {
	Clients     int
	Rooms       int
	BusiestRoom string
	BusiestSize int
}

// target pairs a member name with its connection for a fan-out snapshot.
type target struct {
	name string
	conn Conn
}

// NewRegistry builds a registry with the default room plus any extra
// seed rooms. New registrations land in the default room; the admin
// name is reserved and can never be registered.
func NewRegistry(defaultRoom, adminName string, extraRooms ...string) *Registry {
	r := &Registry{
		clients:     make(map[string]Conn),
		rooms:       make(map[string]map[string]struct{}),
		memberRoom:  make(map[string]string),
		defaultRoom: defaultRoom,
		adminName:   adminName,
	}
	r.rooms[defaultRoom] = make(map[string]struct{})
	for _, room := range extraRooms {
		if _, ok := r.rooms[room]; !ok {
			r.rooms[room] = make(map[string]struct{})
		}
	}
	return r
}

// DefaultRoom returns the room new registrations are placed in.
func (r *Registry) DefaultRoom() string { return r.defaultRoom }

// AdminName returns the reserved operator identifier.
func (r *Registry) AdminName() string { return r.adminName }

// Register binds a name to a connection and places it in the default
// room. The insert into both maps happens under one lock acquisition so
// observers never see a registered name without a room.
func (r *Registry) Register(name string, conn Conn) error {
	if name == "" {
		return ErrNameEmpty
	}
	if name == r.adminName {
		return ErrNameReserved
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[name]; ok {
		return ErrNameTaken
	}
	r.clients[name] = conn
	r.rooms[r.defaultRoom][name] = struct{}{}
	r.memberRoom[name] = r.defaultRoom
	return nil
}

// Lookup returns the connection for a registered name.
func (r *Registry) Lookup(name string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.clients[name]
	return conn, ok
}

// LocateRoom returns the room currently containing the named member.
func (r *Registry) LocateRoom(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.memberRoom[name]
	return room, ok
}

// MoveToRoom migrates a member to the target room, creating the room if
// it does not exist. Moving to the current room is a no-op that returns
// old == room. Returns the old room and the member count of the target
// after the move.
func (r *Registry) MoveToRoom(name, room string) (old string, members int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.memberRoom[name]
	if !ok {
		return "", 0, ErrNotRegistered
	}
	if old == room {
		return old, len(r.rooms[room]), nil
	}

	delete(r.rooms[old], name)
	m := r.rooms[room]
	if m == nil {
		m = make(map[string]struct{})
		r.rooms[room] = m
	}
	m[name] = struct{}{}
	r.memberRoom[name] = room
	return old, len(m), nil
}

// Unregister removes a name from the registry and its room, then closes
// the connection. Returns the room the member used to belong to. A
// member with no room is tolerated as a benign no-op even though the
// registration invariant should make it unreachable.
func (r *Registry) Unregister(name string) (string, error) {
	r.mu.Lock()
	conn, ok := r.clients[name]
	if !ok {
		r.mu.Unlock()
		return "", ErrNotRegistered
	}
	old, hasRoom := r.memberRoom[name]
	delete(r.clients, name)
	delete(r.memberRoom, name)
	if hasRoom {
		delete(r.rooms[old], name)
	}
	r.mu.Unlock()

	// Close outside the lock; closing unblocks the session's pending
	// read, and Conn.Close is idempotent.
	_ = conn.Close()
	return old, nil
}

// CloseAll unregisters every client. Used on shutdown so every pending
// read unblocks.
func (r *Registry) CloseAll() {
	for _, name := range r.Names() {
		_, _ = r.Unregister(name)
	}
}

// Stats returns a consistent summary of the registry.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{
		Clients: len(r.clients),
		Rooms:   len(r.rooms),
	}
	for name, members := range r.rooms {
		if len(members) > st.BusiestSize || st.BusiestRoom == "" {
			st.BusiestRoom = name
			st.BusiestSize = len(members)
		}
	}
	return st
}

// Rooms returns the sorted room names.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Names returns the sorted names of all registered clients.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Members returns the sorted member names of one room.
func (r *Registry) Members(room string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil, ErrUnknownRoom
	}
	out := make([]string, 0, len(members))
	for name := range members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// RoomMembers returns every room with its sorted member list as one
// consistent view, so listings never straddle a concurrent move.
func (r *Registry) RoomMembers() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.rooms))
	for room, members := range r.rooms {
		names := make([]string, 0, len(members))
		for name := range members {
			names = append(names, name)
		}
		sort.Strings(names)
		out[room] = names
	}
	return out
}

// roomTargets snapshots the connections of a room's members, minus the
// excluded name. The router writes to the snapshot outside the lock.
func (r *Registry) roomTargets(room, exclude string) ([]target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil, false
	}
	out := make([]target, 0, len(members))
	for name := range members {
		if name == exclude {
			continue
		}
		out = append(out, target{name: name, conn: r.clients[name]})
	}
	return out, true
}
