package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/infrastructure/ratelimit"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/pkg/errors"
)

func TestChatUseCase_CreateOrGetSessionReusesExactSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.chats.CreateOrGetSession(ctx, "alice", CreateChatInput{ParticipantIDs: []string{"bob", "alice", "bob"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"alice", "bob"}, first.Participants)

	again, created, err := f.chats.CreateOrGetSession(ctx, "bob", CreateChatInput{ParticipantIDs: []string{"alice"}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	group, created, err := f.chats.CreateOrGetSession(ctx, "alice", CreateChatInput{ParticipantIDs: []string{"bob", "carol"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, group.ID)
}

func TestChatUseCase_CreateOrGetSessionNeedsAnotherUser(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.chats.CreateOrGetSession(context.Background(), "alice", CreateChatInput{ParticipantIDs: []string{"alice", " "}})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestChatUseCase_PostMessageFansOutToRoomMembers(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")

	a, b, outsider := f.connect("alice"), f.connect("bob"), f.connect("carol")
	f.manager.JoinRoom(a, s.ID)
	f.manager.JoinRoom(b, s.ID)

	msg, err := f.chats.PostMessage(context.Background(), a.Identity, s.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.NotEmpty(t, msg.ID)

	for _, c := range []*ws.Client{a, b} {
		got := framesOf(t, c, ws.EventReceiveMessage)
		require.Len(t, got, 1)
		var data ws.ReceiveMessageData
		require.NoError(t, json.Unmarshal(got[0].Data, &data))
		assert.Equal(t, msg.ID, data.Message.ID)
		assert.Equal(t, "alice", data.Message.SenderID)
	}
	assert.Empty(t, framesOf(t, outsider, ws.EventReceiveMessage))

	history, total, err := f.chats.History(context.Background(), "bob", s.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "hello", history[0].Text)
}

func TestChatUseCase_PostMessageChecksPersistedMembership(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")

	// Being in the room is not enough without being a session participant.
	intruder := f.connect("mallory")
	f.manager.JoinRoom(intruder, s.ID)
	member := f.connect("alice")
	f.manager.JoinRoom(member, s.ID)
	framesOf(t, member, ws.EventReceiveMessage)

	_, err := f.chats.PostMessage(context.Background(), intruder.Identity, s.ID, "hi")
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	assert.Empty(t, framesOf(t, member, ws.EventReceiveMessage))

	_, err = f.chats.PostMessage(context.Background(), member.Identity, "missing", "hi")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, total, err := f.chats.History(context.Background(), "alice", s.ID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestChatUseCase_PostMessageValidatesText(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")
	alice := entity.Identity{UserID: "alice"}

	_, err := f.chats.PostMessage(context.Background(), alice, s.ID, " \n\t ")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.chats.PostMessage(context.Background(), alice, s.ID, strings.Repeat("a", MaxMessageLength+1))
	assert.True(t, errors.Is(err, errors.CodeValidation))

	// Length is counted in characters, not bytes.
	msg, err := f.chats.PostMessage(context.Background(), alice, s.ID, strings.Repeat("é", MaxMessageLength))
	require.NoError(t, err)
	assert.Len(t, []rune(msg.Text), MaxMessageLength)
}

func TestChatUseCase_PostMessageStorageFailureSkipsFanOut(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")

	f.chatRepo = &failingChatRepo{ChatRepository: f.chatRepo, err: context.DeadlineExceeded}
	f.build()

	b := f.connect("bob")
	f.manager.JoinRoom(b, s.ID)

	_, err := f.chats.PostMessage(context.Background(), entity.Identity{UserID: "alice"}, s.ID, "lost")
	assert.True(t, errors.Is(err, errors.CodeStorageFailure))
	assert.Empty(t, framesOf(t, b, ws.EventReceiveMessage))
}

func TestChatUseCase_PostMessageResolvesSenderFromDirectory(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")
	require.NoError(t, f.userRepo.Create(context.Background(), &entity.User{
		ID: "alice", Name: "Alice Doe", ProfileImageURL: "https://img/alice.png", Role: entity.RoleUser,
	}))

	msg, err := f.chats.PostMessage(context.Background(), entity.Identity{UserID: "alice"}, s.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", msg.SenderName)
	assert.Equal(t, "https://img/alice.png", msg.SenderAvatar)

	// Token claims win over the stored profile.
	msg, err = f.chats.PostMessage(context.Background(), entity.Identity{UserID: "alice", Name: "Al"}, s.ID, "hi again")
	require.NoError(t, err)
	assert.Equal(t, "Al", msg.SenderName)
}

func TestChatUseCase_PostMessageRateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter = ratelimit.NewRateLimiterWithPolicies(map[string]ratelimit.Policy{
		ratelimit.ActionCreateChat:  {Every: time.Millisecond, Burst: 10},
		ratelimit.ActionSendMessage: {Every: time.Hour, Burst: 2},
	})
	f.build()
	s := f.session(t, "alice", "bob")
	alice := entity.Identity{UserID: "alice"}

	for i := 0; i < 2; i++ {
		_, err := f.chats.PostMessage(context.Background(), alice, s.ID, "ok")
		require.NoError(t, err)
	}
	_, err := f.chats.PostMessage(context.Background(), alice, s.ID, "too much")
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))

	_, err = f.chats.PostMessage(context.Background(), entity.Identity{UserID: "bob"}, s.ID, "separate bucket")
	assert.NoError(t, err)
}

func TestChatUseCase_HistoryIsAscendingAndPaginated(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")
	alice := entity.Identity{UserID: "alice"}

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.chats.PostMessage(context.Background(), alice, s.ID, text)
		require.NoError(t, err)
	}

	page, total, err := f.chats.History(context.Background(), "bob", s.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "one", page[0].Text)
	assert.Equal(t, "two", page[1].Text)

	page, _, err = f.chats.History(context.Background(), "bob", s.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "three", page[0].Text)

	_, _, err = f.chats.History(context.Background(), "carol", s.ID, 1, 2)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestChatUseCase_DeleteSessionMemberOnly(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "alice", "bob")

	err := f.chats.DeleteSession(context.Background(), "carol", s.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	require.NoError(t, f.chats.DeleteSession(context.Background(), "bob", s.ID))

	_, err = f.chats.GetSession(context.Background(), "alice", s.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestChatUseCase_ListSessions(t *testing.T) {
	f := newFixture(t)
	f.session(t, "alice", "bob")
	f.session(t, "alice", "carol")
	f.session(t, "bob", "carol")

	sessions, total, err := f.chats.ListSessions(context.Background(), "alice", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, s := range sessions {
		assert.True(t, s.HasParticipant("alice"))
	}
}
