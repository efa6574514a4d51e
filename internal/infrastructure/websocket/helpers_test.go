package websocket

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var errForbidden = errors.Forbidden("You are not a participant of this room", nil)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestClient(userID string) *Client {
	return NewClient(nil, entity.Identity{UserID: userID, Name: "Name " + userID, AvatarURL: userID + ".png"}, 64)
}

// drain returns every frame queued for c so far.
func drain(t *testing.T, c *Client) []frame {
	t.Helper()
	var frames []frame
	for {
		select {
		case raw := <-c.Outgoing():
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func ofType(frames []frame, eventType string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Type == eventType {
			out = append(out, f)
		}
	}
	return out
}

func decode[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

type fakeGateway struct {
	sessions    map[string][]string
	sessionsErr error
	forbidden   map[string]bool
	posted      []postedMessage
	postErr     error
	manager     *Manager
}

type postedMessage struct {
	identity  entity.Identity
	sessionID string
	text      string
}

func (g *fakeGateway) SessionsForUser(_ context.Context, userID string) ([]string, error) {
	if g.sessionsErr != nil {
		return nil, g.sessionsErr
	}
	return g.sessions[userID], nil
}

func (g *fakeGateway) AuthorizeRoom(_ context.Context, identity entity.Identity, roomID string) error {
	if g.forbidden[identity.UserID+"/"+roomID] {
		return errForbidden
	}
	return nil
}

func (g *fakeGateway) PostMessage(_ context.Context, identity entity.Identity, sessionID, text string) (*entity.Message, error) {
	if g.postErr != nil {
		return nil, g.postErr
	}
	g.posted = append(g.posted, postedMessage{identity: identity, sessionID: sessionID, text: text})
	msg := &entity.Message{ID: "m1", SessionID: sessionID, SenderID: identity.UserID, SenderName: identity.Name, Text: text}
	if g.manager != nil {
		g.manager.BroadcastToRoom(sessionID, NewMessage(EventReceiveMessage, ReceiveMessageData{Message: msg}), "")
	}
	return msg, nil
}
