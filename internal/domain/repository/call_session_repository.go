package repository

import (
	"context"

	"taskmeet/internal/domain/entity"
)

type CallSessionRepository interface {
	// Create fails with a CONFLICT AppError when the room ID is taken.
	Create(ctx context.Context, session *entity.CallSession) error
	GetByRoomID(ctx context.Context, roomID string) (*entity.CallSession, error)
	// ListActiveByParticipant returns newest first.
	ListActiveByParticipant(ctx context.Context, userID string) ([]*entity.CallSession, error)
}
