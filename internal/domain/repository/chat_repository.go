package repository

import (
	"context"

	"taskmeet/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	GetByID(ctx context.Context, id string) (*entity.ChatSession, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error)
	// FindByExactParticipants is a best-effort set-equality lookup. Concurrent
	// creators may still produce two sessions with the same members.
	FindByExactParticipants(ctx context.Context, participants []string) (*entity.ChatSession, error)
	// Delete removes the session together with its messages.
	Delete(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, message *entity.Message) error
	// ListMessages returns messages in ascending createdAt order.
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error)
}
