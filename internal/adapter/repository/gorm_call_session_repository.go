package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
)

type gormCallSessionRepository struct {
	db *gorm.DB
}

func NewGormCallSessionRepository(db *gorm.DB) repository.CallSessionRepository {
	return &gormCallSessionRepository{db: db}
}

func (r *gormCallSessionRepository) Create(ctx context.Context, session *entity.CallSession) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.Participants = normalizeParticipants(session.Participants)

	model := &callSessionModel{
		RoomID:      session.RoomID,
		CreatedBy:   session.CreatedBy,
		SessionType: session.SessionType,
		IsActive:    session.IsActive,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
	for _, userID := range session.Participants {
		model.Participants = append(model.Participants, callParticipantModel{RoomID: session.RoomID, UserID: userID})
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("Call session room already exists")
		}
		return errors.StorageFailure("create call session", err)
	}
	return nil
}

func (r *gormCallSessionRepository) GetByRoomID(ctx context.Context, roomID string) (*entity.CallSession, error) {
	var model callSessionModel
	err := r.db.WithContext(ctx).Preload("Participants").First(&model, "room_id = ?", roomID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Call session", err)
		}
		return nil, errors.StorageFailure("get call session", err)
	}
	return model.toEntity(), nil
}

func (r *gormCallSessionRepository) ListActiveByParticipant(ctx context.Context, userID string) ([]*entity.CallSession, error) {
	var models []callSessionModel
	err := r.db.WithContext(ctx).Preload("Participants").
		Joins("JOIN call_session_participants p ON p.room_id = call_sessions.room_id AND p.user_id = ?", userID).
		Where("call_sessions.is_active = ?", true).
		Order("call_sessions.created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.StorageFailure("list call sessions", err)
	}

	sessions := make([]*entity.CallSession, 0, len(models))
	for i := range models {
		sessions = append(sessions, models[i].toEntity())
	}
	return sessions, nil
}
