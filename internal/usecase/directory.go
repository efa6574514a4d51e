package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/repository"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

// Directory resolves display data for users. Concurrent lookups of the same
// user share one repository call.
type Directory struct {
	userRepo repository.UserRepository
	group    singleflight.Group
}

func NewDirectory(userRepo repository.UserRepository) *Directory {
	return &Directory{userRepo: userRepo}
}

func (d *Directory) Lookup(ctx context.Context, userID string) (*entity.User, error) {
	v, err, _ := d.group.Do(userID, func() (interface{}, error) {
		return d.userRepo.GetByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.User), nil
}

// Resolve fills the blank display fields of identity from the stored profile.
// Lookup failures leave identity as it is.
func (d *Directory) Resolve(ctx context.Context, identity entity.Identity) entity.Identity {
	if identity.Name != "" && identity.AvatarURL != "" && identity.Role != "" {
		return identity
	}

	user, err := d.Lookup(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Warn("Directory lookup for %s failed: %v", identity.UserID, err)
		}
		return identity
	}

	if identity.Name == "" {
		identity.Name = user.Name
	}
	if identity.AvatarURL == "" {
		identity.AvatarURL = user.ProfileImageURL
	}
	if identity.Role == "" {
		identity.Role = user.Role
	}
	return identity
}

// EnsureProfile creates the stored profile on first sight of a user and
// refreshes its display fields when the token carries newer ones.
func (d *Directory) EnsureProfile(ctx context.Context, identity entity.Identity) (*entity.User, error) {
	user, err := d.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}

		now := time.Now().UTC()
		user = &entity.User{
			ID:              identity.UserID,
			Name:            identity.Name,
			ProfileImageURL: identity.AvatarURL,
			Role:            identity.Role,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if user.Role == "" {
			user.Role = entity.RoleUser
		}
		if err := d.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	changed := false
	if identity.Name != "" && identity.Name != user.Name {
		user.Name = identity.Name
		changed = true
	}
	if identity.AvatarURL != "" && identity.AvatarURL != user.ProfileImageURL {
		user.ProfileImageURL = identity.AvatarURL
		changed = true
	}
	if changed {
		user.UpdatedAt = time.Now().UTC()
		if err := d.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
