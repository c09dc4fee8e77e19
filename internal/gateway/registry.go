package gateway

import "sync"

// Registry tracks which rooms each live connection has joined and, in
// reverse, which connections belong to each room. It is the single owner of
// room membership state; callers mutate it only through Join, Leave, and
// Disconnect. Safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// rooms maps connection id to the set of joined room names.
	rooms map[string]map[string]struct{}
	// members maps room name to the set of member connection ids.
	members map[string]map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]map[string]struct{}),
		members: make(map[string]map[string]struct{}),
	}
}

// Join adds the connection to the room. Joining a room twice is a no-op.
func (r *Registry) Join(connID, room string) {
	if connID == "" || room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[connID] == nil {
		r.rooms[connID] = make(map[string]struct{})
	}
	r.rooms[connID][room] = struct{}{}

	if r.members[room] == nil {
		r.members[room] = make(map[string]struct{})
	}
	r.members[room][connID] = struct{}{}
}

// Leave removes the connection from the room. Leaving a room the connection
// never joined is a no-op.
func (r *Registry) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

// Disconnect removes the connection from every room it joined and purges its
// entry. It is unconditional and idempotent: disconnecting an unknown
// connection, or the same connection twice, is a no-op.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.rooms[connID] {
		r.leaveLocked(connID, room)
	}
	delete(r.rooms, connID)
}

func (r *Registry) leaveLocked(connID, room string) {
	if set := r.rooms[connID]; set != nil {
		delete(set, room)
	}
	if set := r.members[room]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// Rooms returns the room names the connection has joined.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.rooms[connID]))
	for room := range r.rooms[connID] {
		out = append(out, room)
	}
	return out
}

// Members returns the connection ids currently in the room.
func (r *Registry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.members[room]))
	for connID := range r.members[room] {
		out = append(out, connID)
	}
	return out
}

// InRoom reports whether the connection is a member of the room.
func (r *Registry) InRoom(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room][connID]
	return ok
}

// ConnectionCount returns the number of live tracked connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
