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

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) repository.UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = entity.RoleUser
	}

	if err := r.db.WithContext(ctx).Create(toUserModel(user)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("User already exists")
		}
		return errors.StorageFailure("create user", err)
	}
	return nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.StorageFailure("get user", err)
	}
	return model.toEntity(), nil
}

// Update writes only the non-empty profile fields.
func (r *gormUserRepository) Update(ctx context.Context, user *entity.User) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if user.Name != "" {
		updates["name"] = user.Name
	}
	if user.Email != "" {
		updates["email"] = user.Email
	}
	if user.ProfileImageURL != "" {
		updates["profile_image_url"] = user.ProfileImageURL
	}
	if user.Role != "" {
		updates["role"] = user.Role
	}

	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", user.ID).Updates(updates)
	if res.Error != nil {
		return errors.StorageFailure("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("User", nil)
	}
	return nil
}
