// Package dashboard builds the role-routed landing summary.
package dashboard

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

const (
	ViewManagement = "management"
	ViewEmployee   = "employee"
)

// StatusCounts maps a status to the number of records holding it.
type StatusCounts map[string]int64

// Total sums every status.
func (c StatusCounts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// Scope restricts counting to one owner or one supervisor's team. A zero
// Scope counts everything.
type Scope struct {
	UserID       *int64
	SupervisorID *int64
}

type Summary struct {
	View             string       `json:"view"`
	Landing          string       `json:"landing"`
	Attendance       StatusCounts `json:"attendance"`
	WorkReports      StatusCounts `json:"work_reports"`
	MaterialRequests StatusCounts `json:"material_requests"`

	// Employee only.
	OpenShift     *bool    `json:"open_shift,omitempty"`
	ApprovedHours *float64 `json:"approved_hours,omitempty"`
}

type Repository interface {
	CountByStatus(ctx context.Context, ledger auth.Ledger, scope Scope) (StatusCounts, error)
	HasOpenShift(ctx context.Context, userID int64) (bool, error)
	ApprovedHours(ctx context.Context, userID int64) (float64, error)
}

type Service struct {
	repo    Repository
	checker auth.PermissionChecker
	logger  *slog.Logger
}

func NewService(repo Repository, checker auth.PermissionChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, checker: checker, logger: logger}
}

// Summary counts what actor would see on the ledger listings. Supervisors
// see their team's attendance and reports and every material request.
func (s *Service) Summary(ctx context.Context, actor *auth.User) (*Summary, error) {
	if actor == nil {
		return nil, internal.ErrRoleForbidden
	}

	own := Scope{UserID: &actor.ID}
	scopes := map[auth.Ledger]Scope{
		auth.LedgerAttendance: own,
		auth.LedgerWorkReport: own,
		auth.LedgerMaterial:   own,
	}
	sum := &Summary{View: ViewEmployee, Landing: transport.LandingView(actor.Role)}

	if s.checker.CanViewManagement(actor) {
		sum.View = ViewManagement
		team := Scope{}
		if actor.IsSupervisor() {
			team.SupervisorID = &actor.ID
		}
		scopes[auth.LedgerAttendance] = team
		scopes[auth.LedgerWorkReport] = team
		scopes[auth.LedgerMaterial] = Scope{}
	}

	var err error
	if sum.Attendance, err = s.count(ctx, auth.LedgerAttendance, scopes); err != nil {
		return nil, err
	}
	if sum.WorkReports, err = s.count(ctx, auth.LedgerWorkReport, scopes); err != nil {
		return nil, err
	}
	if sum.MaterialRequests, err = s.count(ctx, auth.LedgerMaterial, scopes); err != nil {
		return nil, err
	}

	if sum.View == ViewEmployee {
		open, err := s.repo.HasOpenShift(ctx, actor.ID)
		if err != nil {
			s.logger.Error("failed to check open shift", "error", err, "user_id", actor.ID)
			return nil, err
		}
		hours, err := s.repo.ApprovedHours(ctx, actor.ID)
		if err != nil {
			s.logger.Error("failed to sum approved hours", "error", err, "user_id", actor.ID)
			return nil, err
		}
		sum.OpenShift = &open
		sum.ApprovedHours = &hours
	}
	return sum, nil
}

func (s *Service) count(ctx context.Context, ledger auth.Ledger, scopes map[auth.Ledger]Scope) (StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx, ledger, scopes[ledger])
	if err != nil {
		s.logger.Error("failed to count records", "error", err, "ledger", ledger)
		return nil, err
	}
	return counts, nil
}
