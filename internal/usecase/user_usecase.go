package usecase

import (
	"context"
	"time"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
)

type UserUseCase struct {
	userRepo  repository.UserRepository
	directory *Directory
}

func NewUserUseCase(userRepo repository.UserRepository, directory *Directory) *UserUseCase {
	return &UserUseCase{
		userRepo:  userRepo,
		directory: directory,
	}
}

type UpdateProfileInput struct {
	Name            string
	ProfileImageURL string
}

// GetProfile returns the caller's profile, creating it from token claims on
// first use.
func (uc *UserUseCase) GetProfile(ctx context.Context, identity entity.Identity) (*entity.User, error) {
	user, err := uc.directory.EnsureProfile(ctx, identity)
	if err != nil {
		return nil, storageError("load user profile", err)
	}
	return user, nil
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, identity entity.Identity, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.GetProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.ProfileImageURL != "" {
		user.ProfileImageURL = input.ProfileImageURL
	}
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}
		return nil, storageError("update user profile", err)
	}
	return user, nil
}

// RoleOf returns the stored role of a user, or RoleUser when no profile exists.
func (uc *UserUseCase) RoleOf(ctx context.Context, userID string) (string, error) {
	user, err := uc.directory.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return entity.RoleUser, nil
		}
		return "", storageError("load user role", err)
	}
	return user.Role, nil
}
