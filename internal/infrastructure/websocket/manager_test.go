package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_JoinNotifiesExistingMembersAndSnapshotsJoiner(t *testing.T) {
	m := NewManager()
	a, b := newTestClient("A"), newTestClient("B")
	m.Register(a)
	m.Register(b)
	drain(t, a)
	drain(t, b)

	m.JoinRoom(a, "R1")
	drain(t, a)

	m.JoinRoom(b, "R1")

	aFrames := drain(t, a)
	joinedEvents := ofType(aFrames, EventParticipantJoined)
	require.Len(t, joinedEvents, 1)
	joined := decode[ParticipantJoinedData](t, joinedEvents[0])
	assert.Equal(t, "R1", joined.RoomID)
	assert.Equal(t, "B", joined.Participant.UserID)
	assert.Equal(t, b.ID, joined.Participant.ConnectionID)

	bFrames := drain(t, b)
	assert.Empty(t, ofType(bFrames, EventParticipantJoined))
	snapshots := ofType(bFrames, EventRoomMembers)
	require.Len(t, snapshots, 1)
	members := decode[RoomMembersData](t, snapshots[0])
	require.Len(t, members.Participants, 2)
	assert.Equal(t, "A", members.Participants[0].UserID)
	assert.Equal(t, "B", members.Participants[1].UserID)
}

func TestManager_RepeatedJoinDoesNotRenotify(t *testing.T) {
	m := NewManager()
	a, b := newTestClient("A"), newTestClient("B")
	m.Register(a)
	m.Register(b)
	m.JoinRoom(a, "R1")
	m.JoinRoom(b, "R1")
	drain(t, a)
	drain(t, b)

	assert.False(t, m.JoinRoom(b, "R1"))

	assert.Empty(t, ofType(drain(t, a), EventParticipantJoined))
	assert.Len(t, ofType(drain(t, b), EventRoomMembers), 1)
	assert.Len(t, m.Rooms().Members("R1"), 2)
}

func TestManager_UnregisterEvictsRoomAndUpdatesPresence(t *testing.T) {
	m := NewManager()
	a, b := newTestClient("A"), newTestClient("B")
	m.Register(a)
	m.Register(b)
	m.JoinRoom(a, "R2")
	m.JoinRoom(a, "shared")
	m.JoinRoom(b, "shared")
	drain(t, b)

	m.Unregister(a)
	m.Unregister(a)

	assert.False(t, m.Rooms().Has("R2"))
	assert.True(t, m.Rooms().Has("shared"))
	assert.False(t, m.Presence().IsOnline("A"))
	assert.Equal(t, 1, m.ClientCount())

	bFrames := drain(t, b)
	left := ofType(bFrames, EventParticipantLeft)
	require.Len(t, left, 1)
	leftData := decode[ParticipantLeftData](t, left[0])
	assert.Equal(t, "shared", leftData.RoomID)
	assert.Equal(t, "A", leftData.UserID)

	active := ofType(bFrames, EventActiveUsers)
	require.Len(t, active, 1)
	assert.Equal(t, []string{"B"}, decode[ActiveUsersData](t, active[0]).Users)

	c := newTestClient("C")
	m.Register(c)
	m.JoinRoom(c, "R2")
	members := m.Rooms().Members("R2")
	require.Len(t, members, 1)
	assert.Equal(t, "C", members[0].UserID)
}

func TestManager_ActiveUsersBroadcastOnRegister(t *testing.T) {
	m := NewManager()
	a := newTestClient("A")
	m.Register(a)

	tab2 := newTestClient("A")
	m.Register(tab2)
	b := newTestClient("B")
	m.Register(b)

	frames := ofType(drain(t, a), EventActiveUsers)
	require.NotEmpty(t, frames)
	assert.Equal(t, []string{"A", "B"}, decode[ActiveUsersData](t, frames[len(frames)-1]).Users)

	m.Unregister(a)
	assert.True(t, m.Presence().IsOnline("A"))
}

func TestManager_SendToUserReachesEveryTab(t *testing.T) {
	m := NewManager()
	tab1, tab2 := newTestClient("A"), newTestClient("A")
	m.Register(tab1)
	m.Register(tab2)
	drain(t, tab1)
	drain(t, tab2)

	sent := m.SendToUser("A", NewMessage(EventCallSessionCreated, map[string]string{"roomId": "room-1"}))
	assert.Equal(t, 2, sent)
	assert.Len(t, ofType(drain(t, tab1), EventCallSessionCreated), 1)
	assert.Len(t, ofType(drain(t, tab2), EventCallSessionCreated), 1)

	assert.Zero(t, m.SendToUser("nobody", NewMessage(EventCallSessionCreated, nil)))
}

func TestManager_FullBufferClosesClient(t *testing.T) {
	m := NewManager()
	slow := NewClient(nil, newTestClient("S").Identity, 1)
	m.Register(slow)

	m.SendToClient(slow, NewMessage(EventPong, nil))
	assert.False(t, m.SendToClient(slow, NewMessage(EventPong, nil)))

	select {
	case <-slow.Done():
	default:
		t.Fatal("expected slow client to be closed")
	}
}

func TestRelay_ForwardsPayloadVerbatimWithSenderIdentity(t *testing.T) {
	m := NewManager()
	a, b := newTestClient("A"), newTestClient("B")
	m.Register(a)
	m.Register(b)
	drain(t, b)

	payload := json.RawMessage(`{"sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1","type":"offer"}`)
	delivered, err := m.Relay(a, EventOffer, SignalData{To: b.ID, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	offers := ofType(drain(t, b), EventOffer)
	require.Len(t, offers, 1)
	fwd := decode[SignalForwardData](t, offers[0])
	assert.Equal(t, a.ID, fwd.From)
	assert.Equal(t, "A", fwd.FromUserID)
	assert.Equal(t, "Name A", fwd.FromName)
	assert.JSONEq(t, string(payload), string(fwd.Payload))
}

func TestRelay_ByUserIDSkipsSender(t *testing.T) {
	m := NewManager()
	a, aTab2, b := newTestClient("A"), newTestClient("A"), newTestClient("B")
	m.Register(a)
	m.Register(aTab2)
	m.Register(b)
	drain(t, aTab2)
	drain(t, b)

	delivered, err := m.Relay(a, EventICECandidate, SignalData{UserID: "A", Payload: json.RawMessage(`{"candidate":"x"}`)})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Len(t, ofType(drain(t, aTab2), EventICECandidate), 1)
	assert.Empty(t, drain(t, b))
}

func TestRelay_MissingTargetIsDroppedSilently(t *testing.T) {
	m := NewManager()
	a, b := newTestClient("A"), newTestClient("B")
	m.Register(a)
	m.Register(b)
	m.Unregister(b)
	drain(t, a)

	delivered, err := m.Relay(a, EventAnswer, SignalData{To: b.ID, Payload: json.RawMessage(`{}`)})
	assert.NoError(t, err)
	assert.Zero(t, delivered)

	delivered, err = m.Relay(a, EventAnswer, SignalData{UserID: "B", Payload: json.RawMessage(`{}`)})
	assert.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Empty(t, drain(t, a))
}

func TestRelay_RoomScoped(t *testing.T) {
	m := NewManager()
	a, b, outsider := newTestClient("A"), newTestClient("B"), newTestClient("X")
	m.Register(a)
	m.Register(b)
	m.Register(outsider)
	m.JoinRoom(a, "call")
	drain(t, b)

	_, err := m.Relay(outsider, EventOffer, SignalData{To: a.ID, RoomID: "call", Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)

	delivered, err := m.Relay(a, EventOffer, SignalData{To: b.ID, RoomID: "call", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Zero(t, delivered)

	m.JoinRoom(b, "call")
	delivered, err = m.Relay(a, EventOffer, SignalData{To: b.ID, RoomID: "call", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}
