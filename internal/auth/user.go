package auth

import (
	"context"

	"github.com/frahmantamala/electrotrack/internal/core/role"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated actor attached to a request.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	Role         role.Role `json:"role"`
	SupervisorID *int64    `json:"supervisor_id,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == role.Admin
}

func (u *User) IsSupervisor() bool {
	return u != nil && u.Role == role.Supervisor
}

// IsManagement is true for admins and supervisors.
func (u *User) IsManagement() bool {
	return u != nil && u.Role.IsManagement()
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
