package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmeet/internal/domain/entity"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/pkg/errors"
)

var admin = entity.Identity{UserID: "admin", Name: "Admin", Role: entity.RoleAdmin}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestCallUseCase_CreateSessionRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.calls.CreateSession(context.Background(), entity.Identity{UserID: "alice", Role: entity.RoleUser}, CreateCallInput{ParticipantIDs: []string{"bob"}})
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestCallUseCase_CreateSessionNotifiesParticipants(t *testing.T) {
	f := newFixture(t)
	f.calls.now = fixedClock(1700000000123)

	aliceTab1, aliceTab2 := f.connect("alice"), f.connect("alice")
	creator := f.connect("admin")
	bystander := f.connect("carol")

	session, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"alice", "bob"}})
	require.NoError(t, err)
	assert.Equal(t, "room-1700000000123", session.RoomID)
	assert.Equal(t, []string{"admin", "alice", "bob"}, session.Participants)
	assert.Equal(t, entity.SessionTypeVideo, session.SessionType)
	assert.True(t, session.IsActive)

	for _, c := range []*ws.Client{aliceTab1, aliceTab2, creator} {
		got := framesOf(t, c, ws.EventCallSessionCreated)
		require.Len(t, got, 1)
		var data ws.CallSessionCreatedData
		require.NoError(t, json.Unmarshal(got[0].Data, &data))
		assert.Equal(t, session.RoomID, data.Session.RoomID)
	}
	assert.Empty(t, framesOf(t, bystander, ws.EventCallSessionCreated))
}

func TestCallUseCase_DuplicateRoomIDConflicts(t *testing.T) {
	f := newFixture(t)
	f.calls.now = fixedClock(1700000000000)

	_, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{SessionType: entity.SessionTypeChat})
	require.NoError(t, err)

	_, err = f.calls.CreateSession(context.Background(), admin, CreateCallInput{})
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestCallUseCase_MySessionsNewestFirst(t *testing.T) {
	f := newFixture(t)

	f.calls.now = fixedClock(1000)
	older, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"alice"}})
	require.NoError(t, err)
	f.calls.now = fixedClock(2000)
	newer, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"alice"}})
	require.NoError(t, err)

	sessions, err := f.calls.MySessions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.RoomID, sessions[0].RoomID)
	assert.Equal(t, older.RoomID, sessions[1].RoomID)

	sessions, err = f.calls.MySessions(context.Background(), "carol")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCallUseCase_GetSessionParticipantOnly(t *testing.T) {
	f := newFixture(t)
	session, err := f.calls.CreateSession(context.Background(), admin, CreateCallInput{ParticipantIDs: []string{"alice"}})
	require.NoError(t, err)

	got, err := f.calls.GetSession(context.Background(), "alice", session.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.CreatedBy)

	_, err = f.calls.GetSession(context.Background(), "carol", session.RoomID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.calls.GetSession(context.Background(), "alice", "room-0")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
