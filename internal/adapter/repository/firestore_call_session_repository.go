package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
)

const callSessionsCollection = "callSessions"

type firestoreCallSessionRepository struct {
	client *firestore.Client
}

func NewFirestoreCallSessionRepository(client *firestore.Client) repository.CallSessionRepository {
	return &firestoreCallSessionRepository{
		client: client,
	}
}

func (r *firestoreCallSessionRepository) Create(ctx context.Context, session *entity.CallSession) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	// Create, unlike Set, refuses to overwrite: the room ID is the unique key.
	_, err := r.client.Collection(callSessionsCollection).Doc(session.RoomID).Create(ctx, session)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Call session room already exists")
		}
		return errors.StorageFailure("create call session", err)
	}

	return nil
}

func (r *firestoreCallSessionRepository) GetByRoomID(ctx context.Context, roomID string) (*entity.CallSession, error) {
	doc, err := r.client.Collection(callSessionsCollection).Doc(roomID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Call session", err)
		}
		return nil, errors.StorageFailure("get call session", err)
	}

	var session entity.CallSession
	if err := doc.DataTo(&session); err != nil {
		return nil, errors.Internal("Failed to parse call session data", err)
	}

	return &session, nil
}

func (r *firestoreCallSessionRepository) ListActiveByParticipant(ctx context.Context, userID string) ([]*entity.CallSession, error) {
	docs, err := r.client.Collection(callSessionsCollection).
		Where("participants", "array-contains", userID).
		Where("isActive", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.StorageFailure("list call sessions", err)
	}

	sessions := make([]*entity.CallSession, 0, len(docs))
	for _, doc := range docs {
		var session entity.CallSession
		if err := doc.DataTo(&session); err != nil {
			continue
		}
		sessions = append(sessions, &session)
	}

	// Sorted here so the query needs no composite index.
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}
