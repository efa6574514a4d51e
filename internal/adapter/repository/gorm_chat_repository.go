package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
)

type gormChatRepository struct {
	db *gorm.DB
}

func NewGormChatRepository(db *gorm.DB) repository.ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.Participants = normalizeParticipants(session.Participants)

	model := &chatSessionModel{
		ID:             session.ID,
		ParticipantKey: participantKey(session.Participants),
		CreatedAt:      session.CreatedAt,
	}
	for _, userID := range session.Participants {
		model.Members = append(model.Members, chatMemberModel{SessionID: session.ID, UserID: userID})
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.StorageFailure("create chat session", err)
	}
	return nil
}

func (r *gormChatRepository) GetByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	var model chatSessionModel
	err := r.db.WithContext(ctx).Preload("Members").First(&model, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Chat session", err)
		}
		return nil, errors.StorageFailure("get chat session", err)
	}
	return model.toEntity(), nil
}

func (r *gormChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error) {
	base := r.db.WithContext(ctx).Model(&chatSessionModel{}).
		Joins("JOIN chat_session_members m ON m.session_id = chat_sessions.id AND m.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.StorageFailure("count chat sessions", err)
	}

	query := base.Preload("Members").Order("chat_sessions.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []chatSessionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, errors.StorageFailure("list chat sessions", err)
	}

	sessions := make([]*entity.ChatSession, 0, len(models))
	for i := range models {
		sessions = append(sessions, models[i].toEntity())
	}
	return sessions, total, nil
}

func (r *gormChatRepository) FindByExactParticipants(ctx context.Context, participants []string) (*entity.ChatSession, error) {
	key := participantKey(participants)
	if key == "" {
		return nil, errors.NotFound("Chat session", nil)
	}

	var model chatSessionModel
	err := r.db.WithContext(ctx).Preload("Members").
		Where("participant_key = ?", key).
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Chat session", err)
		}
		return nil, errors.StorageFailure("find chat session", err)
	}
	return model.toEntity(), nil
}

func (r *gormChatRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&messageModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&chatMemberModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&chatSessionModel{}).Error
	})
	if err != nil {
		return errors.StorageFailure("delete chat session", err)
	}
	return nil
}

func (r *gormChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(toMessageModel(message)).Error; err != nil {
		return errors.StorageFailure("create message", err)
	}
	return nil
}

func (r *gormChatRepository) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error) {
	base := r.db.WithContext(ctx).Model(&messageModel{}).Where("session_id = ?", sessionID).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.StorageFailure("count messages", err)
	}

	// rowid keeps insertion order for messages sharing a timestamp.
	query := base.Order("created_at ASC").Order("rowid ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []messageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, errors.StorageFailure("list messages", err)
	}

	messages := make([]*entity.Message, 0, len(models))
	for i := range models {
		messages = append(messages, models[i].toEntity())
	}
	return messages, total, nil
}
