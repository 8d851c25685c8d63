package workreport

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/events"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

// ListFilter selects reports; nil fields do not filter. Limit 0 means no
// limit.
type ListFilter struct {
	UserID       *int64
	SupervisorID *int64
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, report *WorkReport) error
	GetByID(ctx context.Context, id int64) (*WorkReport, error)
	// List returns reports newest first.
	List(ctx context.Context, filter ListFilter) ([]*WorkReport, error)
}

type Service struct {
	repo      Repository
	statuses  workflow.Store
	engine    *workflow.Engine
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, statuses workflow.Store, engine *workflow.Engine, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		statuses:  statuses,
		engine:    engine,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit stores a report for actor. Any role may submit.
func (s *Service) Submit(ctx context.Context, actor *auth.User, dto SubmitDTO) (*WorkReport, error) {
	if actor == nil {
		return nil, internal.ErrRoleForbidden
	}

	dto.Normalize()
	hours, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	report := &WorkReport{
		UserID:      actor.ID,
		TaskName:    dto.TaskName,
		Description: dto.Description,
		HoursWorked: hours,
		Status:      workflow.Status(dto.Status),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		s.logger.Error("failed to create work report", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.Info("work report submitted",
		"report_id", report.ID,
		"user_id", actor.ID,
		"hours_worked", report.HoursWorked,
		"status", report.Status)

	if s.publisher != nil {
		event := events.NewSubmissionEvent(events.EventTypeReportSubmitted, actor.ID, 1)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}
	return report, nil
}

// ListVisible returns all reports to admins, the team's reports to
// supervisors and the caller's own reports to everyone else.
func (s *Service) ListVisible(ctx context.Context, actor *auth.User, limit, offset int) ([]*WorkReport, error) {
	if actor == nil {
		return nil, internal.ErrRoleForbidden
	}

	filter := ListFilter{Limit: limit, Offset: offset}
	switch actor.Role {
	case role.Admin:
	case role.Supervisor:
		filter.SupervisorID = &actor.ID
	default:
		filter.UserID = &actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*WorkReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(actor, auth.ActionView, report.Subject().Resource(auth.LedgerWorkReport)) {
		return nil, internal.ErrRoleForbidden
	}
	return report, nil
}

func (s *Service) Approve(ctx context.Context, actor *auth.User, id int64) (*WorkReport, error) {
	return s.transition(ctx, actor, id, workflow.ActionApprove)
}

func (s *Service) Reject(ctx context.Context, actor *auth.User, id int64) (*WorkReport, error) {
	return s.transition(ctx, actor, id, workflow.ActionReject)
}

func (s *Service) transition(ctx context.Context, actor *auth.User, id int64, action workflow.Action) (*WorkReport, error) {
	if _, err := s.engine.Apply(ctx, actor, s.statuses, id, action); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
