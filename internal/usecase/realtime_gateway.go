package usecase

import (
	"context"

	"taskmeet/internal/domain/entity"
	ws "taskmeet/internal/infrastructure/websocket"
)

// RealtimeGateway backs the websocket dispatcher with persisted chat and call
// sessions.
type RealtimeGateway struct {
	chats *ChatUseCase
	calls *CallUseCase
}

var _ ws.Gateway = (*RealtimeGateway)(nil)

func NewRealtimeGateway(chats *ChatUseCase, calls *CallUseCase) *RealtimeGateway {
	return &RealtimeGateway{chats: chats, calls: calls}
}

// SessionsForUser returns the user's chat sessions followed by their active calls.
func (g *RealtimeGateway) SessionsForUser(ctx context.Context, userID string) ([]string, error) {
	roomIDs, err := g.chats.SessionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	calls, err := g.calls.MySessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, call := range calls {
		roomIDs = append(roomIDs, call.RoomID)
	}
	return roomIDs, nil
}

// AuthorizeRoom admits participants of persisted sessions and anyone to rooms
// that match no session.
func (g *RealtimeGateway) AuthorizeRoom(ctx context.Context, identity entity.Identity, roomID string) error {
	if known, err := g.chats.Authorize(ctx, identity.UserID, roomID); known || err != nil {
		return err
	}
	if _, err := g.calls.Authorize(ctx, identity.UserID, roomID); err != nil {
		return err
	}
	return nil
}

func (g *RealtimeGateway) PostMessage(ctx context.Context, identity entity.Identity, sessionID, text string) (*entity.Message, error) {
	return g.chats.PostMessage(ctx, identity, sessionID, text)
}
