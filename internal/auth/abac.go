package auth

import (
	"log/slog"

	"github.com/frahmantamala/electrotrack/internal/core/role"
)

// Action is something an actor attempts on a ledger record.
type Action string

const (
	ActionView        Action = "view"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionAdjustHours Action = "adjust_hours"
)

// Ledger names the record family a resource belongs to.
type Ledger string

const (
	LedgerAttendance Ledger = "attendance"
	LedgerWorkReport Ledger = "work_report"
	LedgerMaterial   Ledger = "material_request"
)

// Resource carries the attributes of a record that authorization looks at.
type Resource struct {
	Ledger            Ledger
	OwnerID           int64
	OwnerSupervisorID *int64
}

// Policy is the single place deciding who may act on which record.
//
//	admin       everything
//	supervisor  records owned by direct subordinates; may also view any material request
//	owner       view own records
type Policy struct {
	logger *slog.Logger
}

func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{logger: logger}
}

func (p *Policy) Allow(u *User, action Action, res Resource) bool {
	allowed := p.decide(u, action, res)
	if !allowed && u != nil {
		p.logger.Debug("policy denied",
			"user_id", u.ID,
			"role", u.Role,
			"action", action,
			"ledger", res.Ledger,
			"owner_id", res.OwnerID)
	}
	return allowed
}

func (p *Policy) decide(u *User, action Action, res Resource) bool {
	if u == nil {
		return false
	}

	switch u.Role {
	case role.Admin:
		return true
	case role.Supervisor:
		if supervises(u, res) {
			return true
		}
		if action == ActionView {
			return res.Ledger == LedgerMaterial || res.OwnerID == u.ID
		}
		return false
	default:
		return action == ActionView && res.OwnerID == u.ID
	}
}

// CanTransition reports whether u may approve or reject the record.
func (p *Policy) CanTransition(u *User, action Action, res Resource) bool {
	if action != ActionApprove && action != ActionReject {
		return false
	}
	return p.Allow(u, action, res)
}

func supervises(u *User, res Resource) bool {
	return res.OwnerSupervisorID != nil && *res.OwnerSupervisorID == u.ID && res.OwnerID != u.ID
}
