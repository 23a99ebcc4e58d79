// internal/presence/presence.go
package presence

import "sync"

// Member is one connected participant's membership record within a room.
// Its lifetime is bound to a single room membership: it is destroyed on
// leave or disconnect.
type Member struct {
	ConnID   string `json:"id"`
	Username string `json:"username"`
}

// Tracker owns per-room membership. Member lists are kept in join order
// because downstream UIs assign positional identifiers from it.
type Tracker struct {
	mu    sync.Mutex
	rooms map[string][]Member
}

func NewTracker() *Tracker {
	return &Tracker{rooms: make(map[string][]Member)}
}

// Join records m as a member of roomID. Joining twice with the same username
// is idempotent: the second join is a no-op that still succeeds, and the
// returned bool reports whether the member was actually added.
func (t *Tracker) Join(roomID string, m Member) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.rooms[roomID] {
		if existing.Username == m.Username {
			return false
		}
	}
	t.rooms[roomID] = append(t.rooms[roomID], m)
	return true
}

// Lookup returns a copy of the member holding username in roomID, or nil.
func (t *Tracker) Lookup(roomID, username string) *Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.rooms[roomID] {
		if m.Username == username {
			return &m
		}
	}
	return nil
}

// Leave removes the member with the given connection id and returns it, or
// nil if no such member exists. Removing a non-member is a no-op, not an
// error: transport disconnects can race with explicit leave events.
func (t *Tracker) Leave(roomID, connID string) *Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := t.rooms[roomID]
	for i, m := range members {
		if m.ConnID == connID {
			t.rooms[roomID] = append(members[:i:i], members[i+1:]...)
			if len(t.rooms[roomID]) == 0 {
				delete(t.rooms, roomID)
			}
			return &m
		}
	}
	return nil
}

// Members returns the room's members in join order.
func (t *Tracker) Members(roomID string) []Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := make([]Member, len(t.rooms[roomID]))
	copy(members, t.rooms[roomID])
	return members
}

// IsEmpty reports whether the room has no members.
func (t *Tracker) IsEmpty(roomID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rooms[roomID]) == 0
}
