package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	userDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/user"
	"github.com/frahmantamala/electrotrack/internal/core/role"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         role.Role `json:"role"`
	SiteLocation *string   `json:"site_location,omitempty"`
	SupervisorID *int64    `json:"supervisor_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName falls back to the username when no names are set.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

func (u *User) ReportsTo(supervisorID int64) bool {
	return u.SupervisorID != nil && *u.SupervisorID == supervisorID
}

var (
	ErrNotFound          = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	ErrUsernameTaken     = internal.NewConflictError("A user with that username already exists", internal.ErrCodeUsernameTaken)
	ErrInvalidSupervisor = internal.NewValidationError("Supervisor must be an existing admin or supervisor", internal.ErrCodeInvalidSupervisor)
	ErrSelfDelete        = internal.NewValidationError("You cannot delete your own account", internal.ErrCodeValidationFailed)
	ErrHasSubordinates   = internal.NewValidationError("Reassign this user's subordinates before giving them a role that cannot supervise", internal.ErrCodeInvalidSupervisor)
)

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		SiteLocation: u.SiteLocation,
		SupervisorID: u.SupervisorID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         role.Role(u.Role),
		SiteLocation: u.SiteLocation,
		SupervisorID: u.SupervisorID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
