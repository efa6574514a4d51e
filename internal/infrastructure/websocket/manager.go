package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"taskmeet/pkg/logger"
)

// Manager owns every live connection together with the room registry and the
// presence tracker. A client's memberships are only changed from its own read
// goroutine, so a client can never be re-added to a room after Unregister.
type Manager struct {
	clients  map[string]*Client // keyed by connection ID
	mutex    sync.RWMutex
	rooms    *RoomRegistry
	presence *PresenceTracker
}

func NewManager() *Manager {
	return &Manager{
		clients:  make(map[string]*Client),
		rooms:    NewRoomRegistry(),
		presence: NewPresenceTracker(),
	}
}

func (m *Manager) Rooms() *RoomRegistry {
	return m.rooms
}

func (m *Manager) Presence() *PresenceTracker {
	return m.presence
}

// Start closes every connection once ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		m.CloseAll()
	}()
}

func (m *Manager) CloseAll() {
	m.mutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mutex.RUnlock()

	for _, c := range clients {
		c.Close()
	}
	logger.Info("WebSocket: closed %d connections", len(clients))
}

// Register makes the client addressable and marks its user online.
func (m *Manager) Register(c *Client) {
	m.mutex.Lock()
	m.clients[c.ID] = c
	m.mutex.Unlock()

	if m.presence.MarkOnline(c.UserID(), c.ID) {
		m.broadcastActiveUsers()
	}
	logger.Info(logger.Conn(c.ID, c.UserID(), "client registered"))
}

// Unregister removes the client from every room, tells the remaining members
// and updates presence. Calling it twice is harmless.
func (m *Manager) Unregister(c *Client) {
	m.mutex.Lock()
	_, ok := m.clients[c.ID]
	delete(m.clients, c.ID)
	m.mutex.Unlock()
	if !ok {
		return
	}

	for _, d := range m.rooms.LeaveAll(c.ID) {
		m.notifyLeft(d.RoomID, d.Participant)
	}

	if _, changed := m.presence.MarkOffline(c.ID); changed {
		m.broadcastActiveUsers()
	}
	logger.Info(logger.Conn(c.ID, c.UserID(), "client unregistered"))
}

func (m *Manager) Client(connID string) (*Client, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	c, ok := m.clients[connID]
	return c, ok
}

func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// JoinRoom adds the client to roomID. Existing members get participant-joined
// once; the joiner always gets the full member snapshot.
func (m *Manager) JoinRoom(c *Client, roomID string) bool {
	self := c.participant()
	joined, existing := m.rooms.Join(roomID, self)

	if joined {
		frame, err := encode(NewMessage(EventParticipantJoined, ParticipantJoinedData{RoomID: roomID, Participant: self}))
		if err == nil {
			for _, p := range existing {
				m.sendFrameToConn(p.ConnectionID, frame)
			}
		}
		logger.Debug(logger.Conn(c.ID, c.UserID(), "joined room %s (%d already there)", roomID, len(existing)))
	}

	m.SendToClient(c, NewMessage(EventRoomMembers, RoomMembersData{
		RoomID:       roomID,
		Participants: m.rooms.Members(roomID),
	}))
	return joined
}

// LeaveRoom removes the client from roomID and notifies the remaining members.
func (m *Manager) LeaveRoom(c *Client, roomID string) bool {
	p, ok := m.rooms.Leave(roomID, c.ID)
	if !ok {
		return false
	}
	m.notifyLeft(roomID, p)
	return true
}

func (m *Manager) notifyLeft(roomID string, p Participant) {
	m.BroadcastToRoom(roomID, NewMessage(EventParticipantLeft, ParticipantLeftData{
		RoomID:       roomID,
		UserID:       p.UserID,
		ConnectionID: p.ConnectionID,
	}), "")
}

// BroadcastToRoom delivers msg to every member connection of roomID except
// exceptConnID and returns how many frames were queued.
func (m *Manager) BroadcastToRoom(roomID string, msg WSMessage, exceptConnID string) int {
	frame, err := encode(msg)
	if err != nil {
		return 0
	}

	sent := 0
	for _, p := range m.rooms.Members(roomID) {
		if p.ConnectionID == exceptConnID {
			continue
		}
		if m.sendFrameToConn(p.ConnectionID, frame) {
			sent++
		}
	}
	return sent
}

// SendToUser delivers msg to every live connection of userID.
func (m *Manager) SendToUser(userID string, msg WSMessage) int {
	frame, err := encode(msg)
	if err != nil {
		return 0
	}

	sent := 0
	for _, connID := range m.presence.Connections(userID) {
		if m.sendFrameToConn(connID, frame) {
			sent++
		}
	}
	return sent
}

func (m *Manager) BroadcastAll(msg WSMessage) {
	frame, err := encode(msg)
	if err != nil {
		return
	}

	m.mutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mutex.RUnlock()

	for _, c := range clients {
		c.Enqueue(frame)
	}
}

func (m *Manager) SendToClient(c *Client, msg WSMessage) bool {
	frame, err := encode(msg)
	if err != nil {
		return false
	}
	return c.Enqueue(frame)
}

func (m *Manager) sendFrameToConn(connID string, frame []byte) bool {
	c, ok := m.Client(connID)
	if !ok {
		return false
	}
	return c.Enqueue(frame)
}

func (m *Manager) broadcastActiveUsers() {
	m.BroadcastAll(NewMessage(EventActiveUsers, ActiveUsersData{Users: m.presence.ListOnline()}))
}

func encode(msg WSMessage) ([]byte, error) {
	frame, err := json.Marshal(msg)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s event: %v", msg.Type, err)
	}
	return frame, err
}
