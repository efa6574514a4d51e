package usecase

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	repoimpl "taskmeet/internal/adapter/repository"
	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/internal/infrastructure/database"
	"taskmeet/internal/infrastructure/ratelimit"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fixture struct {
	manager  *ws.Manager
	chatRepo repository.ChatRepository
	callRepo repository.CallSessionRepository
	userRepo repository.UserRepository
	limiter  *ratelimit.RateLimiter
	chats    *ChatUseCase
	calls    *CallUseCase
	users    *UserUseCase
	gateway  *RealtimeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, repoimpl.MigrateSQL(db))
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		manager:  ws.NewManager(),
		chatRepo: repoimpl.NewGormChatRepository(db),
		callRepo: repoimpl.NewGormCallSessionRepository(db),
		userRepo: repoimpl.NewGormUserRepository(db),
		limiter:  ratelimit.NewRateLimiter(),
	}
	f.build()
	return f
}

// build wires the use cases from the fixture's current dependencies.
func (f *fixture) build() {
	directory := NewDirectory(f.userRepo)
	f.chats = NewChatUseCase(f.chatRepo, directory, f.manager, f.limiter, time.Second)
	f.calls = NewCallUseCase(f.callRepo, f.manager, time.Second)
	f.users = NewUserUseCase(f.userRepo, directory)
	f.gateway = NewRealtimeGateway(f.chats, f.calls)
}

func (f *fixture) connect(userID string) *ws.Client {
	c := ws.NewClient(nil, entity.Identity{UserID: userID, Name: "Name " + userID}, 64)
	f.manager.Register(c)
	return c
}

func (f *fixture) session(t *testing.T, participants ...string) *entity.ChatSession {
	t.Helper()
	s, created, err := f.chats.CreateOrGetSession(context.Background(), participants[0], CreateChatInput{ParticipantIDs: participants[1:]})
	require.NoError(t, err)
	require.True(t, created)
	return s
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// framesOf drains c and keeps the frames of the given type.
func framesOf(t *testing.T, c *ws.Client, eventType string) []frame {
	t.Helper()
	var out []frame
	for {
		select {
		case raw := <-c.Outgoing():
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			if f.Type == eventType {
				out = append(out, f)
			}
		default:
			return out
		}
	}
}

type failingChatRepo struct {
	repository.ChatRepository
	err error
}

func (r *failingChatRepo) CreateMessage(context.Context, *entity.Message) error {
	return r.err
}
