package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/internal/infrastructure/ratelimit"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

const (
	MaxMessageLength = 2000
	MaxParticipants  = 50

	DefaultStorageTimeout = 5 * time.Second
)

type ChatUseCase struct {
	chatRepo       repository.ChatRepository
	directory      *Directory
	wsManager      *ws.Manager
	rateLimiter    *ratelimit.RateLimiter
	storageTimeout time.Duration
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	directory *Directory,
	wsManager *ws.Manager,
	rateLimiter *ratelimit.RateLimiter,
	storageTimeout time.Duration,
) *ChatUseCase {
	if storageTimeout <= 0 {
		storageTimeout = DefaultStorageTimeout
	}
	return &ChatUseCase{
		chatRepo:       chatRepo,
		directory:      directory,
		wsManager:      wsManager,
		rateLimiter:    rateLimiter,
		storageTimeout: storageTimeout,
	}
}

type CreateChatInput struct {
	ParticipantIDs []string
}

// CreateOrGetSession returns the session whose members are exactly the caller
// plus input.ParticipantIDs, creating it when none exists. The boolean reports
// whether a new session was created.
func (uc *ChatUseCase) CreateOrGetSession(ctx context.Context, userID string, input CreateChatInput) (*entity.ChatSession, bool, error) {
	if allowed, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionCreateChat); !allowed {
		logger.Warn("CreateChat rate limited: user %s must wait %v", userID, wait)
		return nil, false, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Try again in %s", wait.Round(time.Second)))
	}

	participants := uniqueIDs(append([]string{userID}, input.ParticipantIDs...))
	if len(participants) < 2 {
		return nil, false, errors.BadRequest("A chat needs at least one other participant", nil)
	}
	if len(participants) > MaxParticipants {
		return nil, false, errors.BadRequest(fmt.Sprintf("A chat can have at most %d participants", MaxParticipants), nil)
	}

	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	existing, err := uc.chatRepo.FindByExactParticipants(storeCtx, participants)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, storageError("find chat session", err)
	}

	session := &entity.ChatSession{
		Participants: participants,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.chatRepo.Create(storeCtx, session); err != nil {
		return nil, false, storageError("create chat session", err)
	}

	logger.Info("Chat session %s created by %s with %d participants", session.ID, userID, len(session.Participants))
	return session, true, nil
}

func (uc *ChatUseCase) ListSessions(ctx context.Context, userID string, page, limit int) ([]*entity.ChatSession, int64, error) {
	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	sessions, total, err := uc.chatRepo.ListByUserID(storeCtx, userID, limit, offsetOf(page, limit))
	if err != nil {
		return nil, 0, storageError("list chat sessions", err)
	}
	return sessions, total, nil
}

func (uc *ChatUseCase) GetSession(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error) {
	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	return uc.memberSession(storeCtx, userID, sessionID)
}

func (uc *ChatUseCase) DeleteSession(ctx context.Context, userID, sessionID string) error {
	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.memberSession(storeCtx, userID, sessionID); err != nil {
		return err
	}
	if err := uc.chatRepo.Delete(storeCtx, sessionID); err != nil {
		return storageError("delete chat session", err)
	}

	logger.Info("Chat session %s deleted by %s", sessionID, userID)
	return nil
}

// History returns the messages of a session in ascending createdAt order.
func (uc *ChatUseCase) History(ctx context.Context, userID, sessionID string, page, limit int) ([]*entity.Message, int64, error) {
	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.memberSession(storeCtx, userID, sessionID); err != nil {
		return nil, 0, err
	}

	messages, total, err := uc.chatRepo.ListMessages(storeCtx, sessionID, limit, offsetOf(page, limit))
	if err != nil {
		return nil, 0, storageError("list messages", err)
	}
	return messages, total, nil
}

// PostMessage validates and persists a message, then fans it out as
// receive-message to every connection currently in the session room. Nothing
// is delivered when persistence fails.
func (uc *ChatUseCase) PostMessage(ctx context.Context, sender entity.Identity, sessionID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return nil, errors.Validation("Message text cannot be empty", nil)
	case n > MaxMessageLength:
		return nil, errors.Validation(fmt.Sprintf("Message text cannot exceed %d characters", MaxMessageLength), nil)
	}

	if allowed, wait := uc.rateLimiter.Allow(sender.UserID, ratelimit.ActionSendMessage); !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", sender.UserID, wait)
		return nil, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Try again in %s", wait.Round(time.Second)))
	}

	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	if _, err := uc.memberSession(storeCtx, sender.UserID, sessionID); err != nil {
		return nil, err
	}

	sender = uc.directory.Resolve(storeCtx, sender)
	message := &entity.Message{
		SessionID:    sessionID,
		SenderID:     sender.UserID,
		SenderName:   sender.Name,
		SenderAvatar: sender.AvatarURL,
		Text:         text,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.chatRepo.CreateMessage(storeCtx, message); err != nil {
		logger.Error("PostMessage: failed to persist message for session %s: %v", sessionID, err)
		return nil, storageError("create message", err)
	}

	delivered := uc.wsManager.BroadcastToRoom(sessionID, ws.NewMessage(ws.EventReceiveMessage, ws.ReceiveMessageData{Message: message}), "")
	logger.Debug("Message %s in session %s delivered to %d connections", message.ID, sessionID, delivered)

	return message, nil
}

// SessionIDs lists every chat session the user belongs to.
func (uc *ChatUseCase) SessionIDs(ctx context.Context, userID string) ([]string, error) {
	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	sessions, _, err := uc.chatRepo.ListByUserID(storeCtx, userID, 0, 0)
	if err != nil {
		return nil, storageError("list chat sessions", err)
	}

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// Authorize reports whether roomID is a chat session and, if so, whether the
// user may join it.
func (uc *ChatUseCase) Authorize(ctx context.Context, userID, roomID string) (bool, error) {
	storeCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	session, err := uc.chatRepo.GetByID(storeCtx, roomID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return false, nil
		}
		return false, storageError("get chat session", err)
	}
	if !session.HasParticipant(userID) {
		return true, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return true, nil
}

func (uc *ChatUseCase) memberSession(ctx context.Context, userID, sessionID string) (*entity.ChatSession, error) {
	session, err := uc.chatRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}
		return nil, storageError("get chat session", err)
	}
	if !session.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return session, nil
}

func (uc *ChatUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, uc.storageTimeout)
}

// storageError keeps AppErrors raised by repositories and wraps anything else,
// deadline expiry included, as a storage failure.
func storageError(operation string, err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errors.StorageFailure(operation, err)
}

func offsetOf(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
