package workflow

import (
	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var knownStatuses = map[Status]bool{
	StatusPending:    true,
	StatusApproved:   true,
	StatusRejected:   true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

func (s Status) Known() bool {
	return knownStatuses[s]
}

// Decided is true once a reviewer has approved or rejected the record.
func (s Status) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Target is the status an action moves a record to.
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	}
	return "", false
}

func (a Action) Permission() auth.Action {
	switch a {
	case ActionApprove:
		return auth.ActionApprove
	case ActionReject:
		return auth.ActionReject
	}
	return auth.Action(a)
}

// PastTense is used in user-facing messages.
func (a Action) PastTense() string {
	switch a {
	case ActionApprove:
		return "approved"
	case ActionReject:
		return "rejected"
	}
	return string(a)
}

var ErrInvalidTransition = internal.NewValidationError("This status change is not allowed", internal.ErrCodeInvalidTransition)

// Transition computes the next status. Decisions overwrite one another:
// approving a rejected record, or rejecting an approved one, is allowed and
// the last decision wins.
func Transition(current Status, action Action) (Status, error) {
	if !current.Known() {
		return "", ErrInvalidTransition
	}
	next, ok := action.Target()
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}
