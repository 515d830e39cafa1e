package broadcast

import (
	"sync"
	"time"
)

// Room is one live chat channel: a room key and the set of currently
// attached sessions. Rooms exist only while they have members; history lives
// in the message store, not here.
type Room struct {
	Key       string
	CreatedAt time.Time

	members map[string]*Session // sessionID -> session
}

// Registry tracks live rooms and their membership. Create-or-fetch on join
// is atomic per room key, and a room is evicted the moment its last member
// leaves.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Join attaches a session to a room, creating the room on first join.
// Joining twice with the same session is a no-op; membership never holds
// duplicates.
func (r *Registry) Join(roomKey string, s *Session) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomKey]
	if !ok {
		room = &Room{
			Key:       roomKey,
			CreatedAt: time.Now(),
			members:   make(map[string]*Session),
		}
		r.rooms[roomKey] = room
	}
	room.members[s.ID] = s
	return room
}

// Leave detaches a session from a room and evicts the room if it became
// empty. Leaving a room the session is not in, or a room that does not
// exist, is a no-op.
func (r *Registry) Leave(roomKey string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomKey]
	if !ok {
		return
	}
	delete(room.members, s.ID)
	if len(room.members) == 0 {
		delete(r.rooms, roomKey)
	}
}

// Members returns a point-in-time snapshot of a room's sessions. The caller
// may iterate it without holding any registry lock.
func (r *Registry) Members(roomKey string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomKey]
	if !ok {
		return nil
	}
	members := make([]*Session, 0, len(room.members))
	for _, s := range room.members {
		members = append(members, s)
	}
	return members
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount returns the number of sessions attached to a room.
func (r *Registry) MemberCount(roomKey string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomKey]
	if !ok {
		return 0
	}
	return len(room.members)
}

// SessionCount returns the number of sessions attached across all rooms.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, room := range r.rooms {
		total += len(room.members)
	}
	return total
}

// CloseAll closes every attached session and empties the registry. Used on
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		for _, s := range room.members {
			s.Close()
		}
	}
	r.rooms = make(map[string]*Room)
}
