package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/infrastructure/ratelimit"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/pkg/errors"
)

func TestRealtimeGateway_SessionsForUserIncludesChatsAndCalls(t *testing.T) {
	f := newFixture(t)
	chat := f.session(t, "alice", "bob")
	call, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"alice"}})
	require.NoError(t, err)

	rooms, err := f.gateway.SessionsForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{chat.ID, call.RoomID}, rooms)

	rooms, err = f.gateway.SessionsForUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{chat.ID}, rooms)
}

func TestRealtimeGateway_AuthorizeRoom(t *testing.T) {
	f := newFixture(t)
	chat := f.session(t, "alice", "bob")
	call, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"bob"}})
	require.NoError(t, err)

	alice := entity.Identity{UserID: "alice"}
	carol := entity.Identity{UserID: "carol"}

	assert.NoError(t, f.gateway.AuthorizeRoom(context.Background(), alice, chat.ID))
	assert.True(t, errors.Is(f.gateway.AuthorizeRoom(context.Background(), carol, chat.ID), errors.CodeForbidden))

	assert.NoError(t, f.gateway.AuthorizeRoom(context.Background(), entity.Identity{UserID: "bob"}, call.RoomID))
	assert.NoError(t, f.gateway.AuthorizeRoom(context.Background(), admin, call.RoomID))
	assert.True(t, errors.Is(f.gateway.AuthorizeRoom(context.Background(), alice, call.RoomID), errors.CodeForbidden))

	// Rooms with no persisted session are open to any authenticated user.
	assert.NoError(t, f.gateway.AuthorizeRoom(context.Background(), carol, "standup"))
}

func TestRealtimeGateway_DrivesDispatcher(t *testing.T) {
	f := newFixture(t)
	chat := f.session(t, "alice", "bob")
	d := ws.NewDispatcher(f.manager, f.gateway, ratelimit.NewRateLimiter())

	alice := ws.NewClient(nil, entity.Identity{UserID: "alice"}, 64)
	bob := ws.NewClient(nil, entity.Identity{UserID: "bob"}, 64)
	d.Connect(context.Background(), alice)
	d.Connect(context.Background(), bob)
	assert.Equal(t, []string{chat.ID}, f.manager.Rooms().RoomsOf(alice.ID))

	d.HandleClientMessage(context.Background(), alice, []byte(`{"type":"send-message","data":{"sessionId":"`+chat.ID+`","text":"hey"}}`))

	assert.Len(t, framesOf(t, bob, ws.EventReceiveMessage), 1)
	assert.Len(t, framesOf(t, alice, ws.EventReceiveMessage), 1)
}

func TestRealtimeGateway_FutureCallRoomCannotBeJoinedEarly(t *testing.T) {
	f := newFixture(t)
	f.calls.now = fixedClock(1761000000000)
	d := ws.NewDispatcher(f.manager, f.gateway, ratelimit.NewRateLimiter())
	roomID := CallRoomPrefix + "1761000000000"

	mallory := ws.NewClient(nil, entity.Identity{UserID: "mallory"}, 64)
	d.Connect(context.Background(), mallory)
	d.HandleClientMessage(context.Background(), mallory, []byte(`{"type":"join-room","data":{"roomId":"`+roomID+`"}}`))
	assert.Len(t, framesOf(t, mallory, ws.EventError), 1)
	assert.False(t, f.manager.Rooms().IsMember(roomID, mallory.ID))

	call, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"bob"}})
	require.NoError(t, err)
	require.Equal(t, roomID, call.RoomID)

	bob := ws.NewClient(nil, entity.Identity{UserID: "bob"}, 64)
	d.Connect(context.Background(), bob)
	assert.True(t, f.manager.Rooms().IsMember(roomID, bob.ID))
	assert.Empty(t, framesOf(t, mallory, ws.EventParticipantJoined))

	// Other ad-hoc room names stay open.
	assert.NoError(t, f.gateway.AuthorizeRoom(context.Background(), entity.Identity{UserID: "mallory"}, "standup"))
}
