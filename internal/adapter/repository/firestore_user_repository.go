package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
)

const usersCollection = "users"

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = entity.RoleUser
	}

	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return errors.StorageFailure("create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.StorageFailure("get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

// Update merges the non-empty profile fields into the stored document.
func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	updateData := map[string]interface{}{
		"updatedAt": time.Now().UTC(),
	}
	if user.Name != "" {
		updateData["name"] = user.Name
	}
	if user.Email != "" {
		updateData["email"] = user.Email
	}
	if user.ProfileImageURL != "" {
		updateData["profileImageUrl"] = user.ProfileImageURL
	}
	if user.Role != "" {
		updateData["role"] = user.Role
	}

	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, updateData, firestore.MergeAll)
	if err != nil {
		return errors.StorageFailure("update user", err)
	}
	return nil
}
