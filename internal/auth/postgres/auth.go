package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/electrotrack/internal/auth"
	userDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/user"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, username string) (auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "password_hash", "is_active").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Credentials{}, auth.ErrUserNotFound
		}
		return auth.Credentials{}, fmt.Errorf("get credentials: %w", err)
	}
	return auth.Credentials{
		UserID:       u.ID,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}, nil
}

// GetUserByID returns the actor for an active account.
func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*auth.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &auth.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         role.Role(u.Role),
		SupervisorID: u.SupervisorID,
	}, nil
}
