package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

const (
	chatSessionsCollection = "chatSessions"
	messagesCollection     = "messages"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) sessions() *firestore.CollectionRef {
	return r.client.Collection(chatSessionsCollection)
}

func (r *firestoreChatRepository) messages(sessionID string) *firestore.CollectionRef {
	return r.sessions().Doc(sessionID).Collection(messagesCollection)
}

func (r *firestoreChatRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.Participants = normalizeParticipants(session.Participants)

	_, err := r.sessions().Doc(session.ID).Set(ctx, session)
	if err != nil {
		return errors.StorageFailure("create chat session", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	doc, err := r.sessions().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat session", err)
		}
		return nil, errors.StorageFailure("get chat session", err)
	}

	var session entity.ChatSession
	if err := doc.DataTo(&session); err != nil {
		return nil, errors.Internal("Failed to parse chat session data", err)
	}
	session.ID = doc.Ref.ID

	return &session, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatSession, int64, error) {
	query := r.sessions().Where("participants", "array-contains", userID).OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chat sessions for user %s: %v", userID, err)
		return nil, 0, errors.StorageFailure("list chat sessions", err)
	}

	start, end := paginate(len(allDocs), limit, offset)

	sessions := make([]*entity.ChatSession, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var session entity.ChatSession
		if err := doc.DataTo(&session); err != nil {
			logger.Warn("Skipping malformed chat session %s: %v", doc.Ref.ID, err)
			continue
		}
		session.ID = doc.Ref.ID
		sessions = append(sessions, &session)
	}

	return sessions, int64(len(allDocs)), nil
}

func (r *firestoreChatRepository) FindByExactParticipants(ctx context.Context, participants []string) (*entity.ChatSession, error) {
	wanted := normalizeParticipants(participants)
	if len(wanted) == 0 {
		return nil, errors.NotFound("Chat session", nil)
	}

	// array-contains narrows the scan to sessions of one member. Equality and
	// the oldest-first choice are settled here, which needs no composite index.
	iter := r.sessions().Where("participants", "array-contains", wanted[0]).Documents(ctx)
	defer iter.Stop()

	var candidates []*entity.ChatSession
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.StorageFailure("find chat session", err)
		}

		var session entity.ChatSession
		if err := doc.DataTo(&session); err != nil {
			continue
		}
		session.ID = doc.Ref.ID
		candidates = append(candidates, &session)
	}

	if session := oldestExactMatch(candidates, wanted); session != nil {
		return session, nil
	}
	return nil, errors.NotFound("Chat session", nil)
}

func (r *firestoreChatRepository) Delete(ctx context.Context, id string) error {
	bw := r.client.BulkWriter(ctx)

	iter := r.messages(id).DocumentRefs(ctx)
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return errors.StorageFailure("delete chat messages", err)
		}
		if _, err := bw.Delete(ref); err != nil {
			bw.End()
			return errors.StorageFailure("delete chat messages", err)
		}
	}
	bw.End()

	if _, err := r.sessions().Doc(id).Delete(ctx); err != nil {
		return errors.StorageFailure("delete chat session", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := r.messages(message.SessionID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.StorageFailure("create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]*entity.Message, int64, error) {
	allDocs, err := r.messages(sessionID).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing messages for session %s: %v", sessionID, err)
		return nil, 0, errors.StorageFailure("list messages", err)
	}

	start, end := paginate(len(allDocs), limit, offset)

	messages := make([]*entity.Message, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, int64(len(allDocs)), nil
}
