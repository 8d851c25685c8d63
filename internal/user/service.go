package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/role"
)

// ListFilter narrows List; a nil SupervisorID means every user.
type ListFilter struct {
	SupervisorID *int64
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	// Delete removes the user with every attendance record, work report and
	// material request they own, and detaches their subordinates.
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo       Repository
	checker    auth.PermissionChecker
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, checker auth.PermissionChecker, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		checker:    checker,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// List returns every user to admins and the supervisor's own team to
// supervisors.
func (s *Service) List(ctx context.Context, actor *auth.User) ([]*User, error) {
	if !s.checker.CanListUsers(actor) {
		return nil, internal.ErrRoleForbidden
	}

	var filter ListFilter
	if actor.Role == role.Supervisor {
		filter.SupervisorID = &actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin(), actor.ID == u.ID:
		return u, nil
	case actor.IsSupervisor() && u.ReportsTo(actor.ID):
		return u, nil
	}
	return nil, internal.ErrRoleForbidden
}

func (s *Service) Me(ctx context.Context, actor *auth.User) (*User, error) {
	return s.repo.GetByID(ctx, actor.ID)
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateUserDTO) (*User, error) {
	if !s.checker.CanManageUsers(actor) {
		s.logger.Warn("create user denied", "actor_id", actor.ID, "role", actor.Role)
		return nil, internal.ErrRoleForbidden
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureUsernameFree(ctx, dto.Username, 0); err != nil {
		return nil, err
	}
	if err := s.ensureSupervisor(ctx, dto.SupervisorID, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: hash,
		Role:         role.Role(dto.Role),
		SiteLocation: dto.SiteLocation,
		SupervisorID: dto.SupervisorID,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	return u, nil
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateUserDTO) (*User, error) {
	if !s.checker.CanManageUsers(actor) {
		s.logger.Warn("update user denied", "actor_id", actor.ID, "user_id", id)
		return nil, internal.ErrRoleForbidden
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Username != nil && *dto.Username != u.Username {
		if err := s.ensureUsernameFree(ctx, *dto.Username, u.ID); err != nil {
			return nil, err
		}
		u.Username = *dto.Username
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	if dto.FirstName != nil {
		u.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		u.LastName = *dto.LastName
	}
	if dto.Role != nil {
		next := role.Role(*dto.Role)
		if u.Role.CanSupervise() && !next.CanSupervise() {
			if err := s.ensureNoSubordinates(ctx, u.ID); err != nil {
				return nil, err
			}
		}
		u.Role = next
	}
	if dto.SiteLocation != nil {
		if *dto.SiteLocation == "" {
			u.SiteLocation = nil
		} else {
			u.SiteLocation = dto.SiteLocation
		}
	}
	switch {
	case dto.ClearSupervisor:
		u.SupervisorID = nil
	case dto.SupervisorID != nil:
		if err := s.ensureSupervisor(ctx, dto.SupervisorID, u.ID); err != nil {
			return nil, err
		}
		u.SupervisorID = dto.SupervisorID
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	if dto.Password != nil {
		hash, err := auth.HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("user updated", "user_id", u.ID, "actor_id", actor.ID)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if !s.checker.CanManageUsers(actor) {
		s.logger.Warn("delete user denied", "actor_id", actor.ID, "user_id", id)
		return internal.ErrRoleForbidden
	}
	if actor.ID == id {
		return ErrSelfDelete
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to delete user", "error", err, "user_id", id)
		}
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) ensureUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrUsernameTaken
	}
	return nil
}

// ensureNoSubordinates keeps every supervisor_id pointing at a user who can
// still supervise.
func (s *Service) ensureNoSubordinates(ctx context.Context, id int64) error {
	team, err := s.repo.List(ctx, ListFilter{SupervisorID: &id})
	if err != nil {
		return err
	}
	for _, member := range team {
		if member.ReportsTo(id) {
			return ErrHasSubordinates
		}
	}
	return nil
}

func (s *Service) ensureSupervisor(ctx context.Context, supervisorID *int64, selfID int64) error {
	if supervisorID == nil {
		return nil
	}
	if *supervisorID == selfID {
		return ErrInvalidSupervisor
	}
	sup, err := s.repo.GetByID(ctx, *supervisorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidSupervisor
		}
		return err
	}
	if !sup.Role.CanSupervise() {
		return ErrInvalidSupervisor
	}
	return nil
}
