package websocket

import (
	"sort"
	"sync"
	"time"
)

// Participant is one connection's presence in one room.
type Participant struct {
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName,omitempty"`
	AvatarURL    string    `json:"avatar,omitempty"`
	ConnectionID string    `json:"connectionId"`
	JoinedAt     time.Time `json:"joinedAt"`

	seq uint64
}

// Departure records a participant removed from a room.
type Departure struct {
	RoomID      string
	Participant Participant
}

type room struct {
	members map[string]Participant // keyed by connection ID
}

// RoomRegistry maps room IDs to their current participants. A room exists only
// while it has at least one member.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	byConn map[string]map[string]struct{} // connection ID -> room IDs
	seq    uint64
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*room),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join adds p to roomID, creating the room if needed. It returns false when the
// connection was already a member, along with the members present before the call.
func (r *RoomRegistry) Join(roomID string, p Participant) (bool, []Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{members: make(map[string]Participant)}
		r.rooms[roomID] = rm
	}

	existing := snapshot(rm, p.ConnectionID)
	if _, member := rm.members[p.ConnectionID]; member {
		return false, existing
	}

	r.seq++
	p.seq = r.seq
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	rm.members[p.ConnectionID] = p

	rooms, ok := r.byConn[p.ConnectionID]
	if !ok {
		rooms = make(map[string]struct{})
		r.byConn[p.ConnectionID] = rooms
	}
	rooms[roomID] = struct{}{}

	return true, existing
}

// Leave removes the connection from roomID and evicts the room once empty.
func (r *RoomRegistry) Leave(roomID, connID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(roomID, connID)
}

// LeaveAll removes the connection from every room it joined.
func (r *RoomRegistry) LeaveAll(connID string) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomIDs := make([]string, 0, len(r.byConn[connID]))
	for roomID := range r.byConn[connID] {
		roomIDs = append(roomIDs, roomID)
	}
	sort.Strings(roomIDs)

	departures := make([]Departure, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		if p, ok := r.leaveLocked(roomID, connID); ok {
			departures = append(departures, Departure{RoomID: roomID, Participant: p})
		}
	}
	return departures
}

func (r *RoomRegistry) leaveLocked(roomID, connID string) (Participant, bool) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return Participant{}, false
	}
	p, ok := rm.members[connID]
	if !ok {
		return Participant{}, false
	}

	delete(rm.members, connID)
	if len(rm.members) == 0 {
		delete(r.rooms, roomID)
	}

	if rooms, ok := r.byConn[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.byConn, connID)
		}
	}
	return p, true
}

// Members returns the room's participants in join order.
func (r *RoomRegistry) Members(roomID string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return snapshot(rm, "")
}

func (r *RoomRegistry) IsMember(roomID, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, member := rm.members[connID]
	return member
}

func (r *RoomRegistry) Has(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Rooms lists the IDs of all non-empty rooms, sorted.
func (r *RoomRegistry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoomsOf lists the rooms a connection is in, sorted.
func (r *RoomRegistry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byConn[connID]))
	for id := range r.byConn[connID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func snapshot(rm *room, skipConn string) []Participant {
	out := make([]Participant, 0, len(rm.members))
	for connID, p := range rm.members {
		if connID == skipConn {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
