package postgres

import (
	"context"
	"errors"
	"fmt"

	attendanceDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/attendance"
	materialDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/material"
	userDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/user"
	workreportDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/workreport"
	"github.com/frahmantamala/electrotrack/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	var rows []*userDatamodel.User
	q := r.db.WithContext(ctx).Order("username ASC")
	if filter.SupervisorID != nil {
		q = q.Where("supervisor_id = ? OR id = ?", *filter.SupervisorID, *filter.SupervisorID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	res := r.db.WithContext(ctx).Model(row).
		Select("username", "email", "first_name", "last_name", "password_hash",
			"role", "site_location", "supervisor_id", "is_active", "updated_at").
		Updates(row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("update user %d: %w", u.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&attendanceDatamodel.Record{},
			&workreportDatamodel.WorkReport{},
			&materialDatamodel.Request{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete records of user %d: %w", id, err)
			}
		}

		err := tx.Model(&userDatamodel.User{}).
			Where("supervisor_id = ?", id).
			Update("supervisor_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach subordinates of user %d: %w", id, err)
		}

		res := tx.Where("id = ?", id).Delete(&userDatamodel.User{})
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}
