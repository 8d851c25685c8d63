package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/events"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/lock"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

// ListFilter selects records; nil fields do not filter. Limit 0 means no
// limit.
type ListFilter struct {
	UserID       *int64
	SupervisorID *int64
	Limit        int
	Offset       int
}

type Repository interface {
	// Open inserts rec as the user's open shift, failing with
	// ErrOpenShiftExists when one is already open.
	Open(ctx context.Context, rec *Record) error
	// CloseOpenShift locks the user's newest open shift, lets fn modify it
	// and saves the result. ErrNoOpenShift when there is none.
	CloseOpenShift(ctx context.Context, userID int64, fn func(*Record) error) (*Record, error)
	// List returns records newest first.
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	UpdateTotalHours(ctx context.Context, id int64, hours float64) error
}

type Service struct {
	repo      Repository
	statuses  workflow.Store
	engine    *workflow.Engine
	policy    *auth.Policy
	checker   auth.PermissionChecker
	locker    lock.Locker
	lockTTL   time.Duration
	publisher events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Service)

// WithLocker serializes clock requests per user.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, statuses workflow.Store, engine *workflow.Engine, policy *auth.Policy, checker auth.PermissionChecker, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		statuses: statuses,
		engine:   engine,
		policy:   policy,
		checker:  checker,
		locker:   lock.Noop{},
		lockTTL:  10 * time.Second,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ClockIn(ctx context.Context, actor *auth.User, geo *Geo) (*Record, error) {
	if !s.checker.CanClockInOut(actor) {
		s.logger.Info("clock-in refused for role", "user_id", actorID(actor), "role", actorRole(actor))
		return nil, internal.ErrRoleForbidden
	}

	release, err := s.acquire(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, release, actor.ID)

	now := s.now()
	rec := &Record{
		UserID:         actor.ID,
		ClockIn:        &now,
		AttendanceType: TypePresent,
		Status:         workflow.StatusPending,
	}
	rec.setGeo(geo)

	if err := s.repo.Open(ctx, rec); err != nil {
		if !errors.Is(err, ErrOpenShiftExists) {
			s.logger.Error("failed to clock in", "error", err, "user_id", actor.ID)
		}
		return nil, err
	}
	rec.MapURL = MapLink(rec.Latitude, rec.Longitude)

	s.logger.Info("clocked in", "user_id", actor.ID, "record_id", rec.ID, "has_location", geo != nil)
	s.publish(ctx, events.NewShiftOpenedEvent(rec.ID, actor.ID))
	return rec, nil
}

func (s *Service) ClockOut(ctx context.Context, actor *auth.User, geo *Geo) (*Record, error) {
	if !s.checker.CanClockInOut(actor) {
		s.logger.Info("clock-out refused for role", "user_id", actorID(actor), "role", actorRole(actor))
		return nil, internal.ErrRoleForbidden
	}

	release, err := s.acquire(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, release, actor.ID)

	rec, err := s.repo.CloseOpenShift(ctx, actor.ID, func(r *Record) error {
		r.Close(s.now(), geo)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoOpenShift) {
			s.logger.Info("clock-out without open shift", "user_id", actor.ID)
		} else {
			s.logger.Error("failed to clock out", "error", err, "user_id", actor.ID)
		}
		return nil, err
	}
	rec.MapURL = MapLink(rec.Latitude, rec.Longitude)

	s.logger.Info("clocked out", "user_id", actor.ID, "record_id", rec.ID, "total_hours", rec.TotalHours)
	s.publish(ctx, events.NewShiftClosedEvent(rec.ID, actor.ID, rec.TotalHours))
	return rec, nil
}

func (s *Service) ListMine(ctx context.Context, actor *auth.User, limit, offset int) ([]*Record, error) {
	if actor == nil {
		return nil, internal.ErrRoleForbidden
	}
	return s.repo.List(ctx, ListFilter{UserID: &actor.ID, Limit: limit, Offset: offset})
}

// ListForManagement returns every record to admins and the records of their
// team to supervisors.
func (s *Service) ListForManagement(ctx context.Context, actor *auth.User, limit, offset int) ([]*Record, error) {
	if !s.checker.CanViewManagement(actor) {
		return nil, internal.ErrRoleForbidden
	}
	filter := ListFilter{Limit: limit, Offset: offset}
	if actor.Role == role.Supervisor {
		filter.SupervisorID = &actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(actor, auth.ActionView, rec.Subject().Resource(auth.LedgerAttendance)) {
		return nil, internal.ErrRoleForbidden
	}
	return rec, nil
}

// SetHoursManually overrides the computed total of a record.
func (s *Service) SetHoursManually(ctx context.Context, actor *auth.User, id int64, hours float64) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(actor, auth.ActionAdjustHours, rec.Subject().Resource(auth.LedgerAttendance)) {
		s.logger.Warn("manual hours refused", "user_id", actorID(actor), "record_id", id)
		return nil, internal.ErrRoleForbidden
	}

	if err := s.repo.UpdateTotalHours(ctx, id, hours); err != nil {
		s.logger.Error("failed to set hours", "error", err, "record_id", id)
		return nil, err
	}
	rec.TotalHours = &hours

	s.logger.Info("hours set manually", "record_id", id, "actor_id", actor.ID, "total_hours", hours)
	return rec, nil
}

func (s *Service) Approve(ctx context.Context, actor *auth.User, id int64) (*Record, error) {
	return s.transition(ctx, actor, id, workflow.ActionApprove)
}

func (s *Service) Reject(ctx context.Context, actor *auth.User, id int64) (*Record, error) {
	return s.transition(ctx, actor, id, workflow.ActionReject)
}

func (s *Service) transition(ctx context.Context, actor *auth.User, id int64, action workflow.Action) (*Record, error) {
	if _, err := s.engine.Apply(ctx, actor, s.statuses, id, action); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) acquire(ctx context.Context, userID int64) (lock.ReleaseFunc, error) {
	release, err := s.locker.Acquire(ctx, lock.UserKey("attendance", userID), s.lockTTL)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, lock.ErrNotAcquired):
		return nil, ErrClockBusy
	default:
		s.logger.Warn("clock lock unavailable, relying on database", "error", err, "user_id", userID)
		return nil, nil
	}
}

func (s *Service) release(ctx context.Context, release lock.ReleaseFunc, userID int64) {
	if release == nil {
		return
	}
	if err := release(internal.Detach(ctx)); err != nil {
		s.logger.Warn("failed to release clock lock", "error", err, "user_id", userID)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func actorID(u *auth.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}

func actorRole(u *auth.User) role.Role {
	if u == nil {
		return ""
	}
	return u.Role
}
