package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

type CallUseCase struct {
	callRepo       repository.CallSessionRepository
	wsManager      *ws.Manager
	storageTimeout time.Duration
	now            func() time.Time
}

// CallRoomPrefix is reserved for call rooms. Unknown IDs carrying it are not
// treated as ad-hoc rooms, so a future call ID cannot be joined early.
const CallRoomPrefix = "room-"

func NewCallUseCase(callRepo repository.CallSessionRepository, wsManager *ws.Manager, storageTimeout time.Duration) *CallUseCase {
	if storageTimeout <= 0 {
		storageTimeout = DefaultStorageTimeout
	}
	return &CallUseCase{
		callRepo:       callRepo,
		wsManager:      wsManager,
		storageTimeout: storageTimeout,
		now:            time.Now,
	}
}

type CreateCallInput struct {
	ParticipantIDs []string
	SessionType    string
}

// CreateSession opens an active call room for the creator and the invited
// users and notifies every live connection of the participants.
func (uc *CallUseCase) CreateSession(ctx context.Context, creator entity.Identity, input CreateCallInput) (*entity.CallSession, error) {
	if !creator.IsAdmin() {
		return nil, errors.Forbidden("Only admins can create call sessions", nil)
	}

	participants := uniqueIDs(append([]string{creator.UserID}, input.ParticipantIDs...))
	if len(participants) > MaxParticipants {
		return nil, errors.BadRequest(fmt.Sprintf("A call can have at most %d participants", MaxParticipants), nil)
	}

	sessionType := input.SessionType
	if sessionType == "" {
		sessionType = entity.SessionTypeVideo
	}

	now := uc.now().UTC()
	session := &entity.CallSession{
		RoomID:       fmt.Sprintf("%s%d", CallRoomPrefix, now.UnixMilli()),
		CreatedBy:    creator.UserID,
		Participants: participants,
		SessionType:  sessionType,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	storeCtx, cancel := context.WithTimeout(ctx, uc.storageTimeout)
	defer cancel()

	if err := uc.callRepo.Create(storeCtx, session); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, err
		}
		return nil, storageError("create call session", err)
	}

	notice := ws.NewMessage(ws.EventCallSessionCreated, ws.CallSessionCreatedData{Session: session})
	notified := 0
	for _, userID := range session.Participants {
		notified += uc.wsManager.SendToUser(userID, notice)
	}

	logger.Info("Call session %s created by %s, %d participants, %d live connections notified",
		session.RoomID, creator.UserID, len(session.Participants), notified)
	return session, nil
}

// MySessions lists the active calls the user takes part in, newest first.
func (uc *CallUseCase) MySessions(ctx context.Context, userID string) ([]*entity.CallSession, error) {
	storeCtx, cancel := context.WithTimeout(ctx, uc.storageTimeout)
	defer cancel()

	sessions, err := uc.callRepo.ListActiveByParticipant(storeCtx, userID)
	if err != nil {
		return nil, storageError("list call sessions", err)
	}
	return sessions, nil
}

func (uc *CallUseCase) GetSession(ctx context.Context, userID, roomID string) (*entity.CallSession, error) {
	storeCtx, cancel := context.WithTimeout(ctx, uc.storageTimeout)
	defer cancel()

	session, err := uc.callRepo.GetByRoomID(storeCtx, roomID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}
		return nil, storageError("get call session", err)
	}
	if !session.CanJoin(userID) {
		return nil, errors.Forbidden("You are not a participant of this call", nil)
	}
	return session, nil
}

// Authorize reports whether roomID is a call room and, if so, whether the user
// may join it.
func (uc *CallUseCase) Authorize(ctx context.Context, userID, roomID string) (bool, error) {
	_, err := uc.GetSession(ctx, userID, roomID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errors.CodeNotFound):
		if strings.HasPrefix(roomID, CallRoomPrefix) {
			return true, errors.Forbidden("No call session exists for this room", nil)
		}
		return false, nil
	case errors.Is(err, errors.CodeForbidden):
		return true, err
	default:
		return false, err
	}
}
