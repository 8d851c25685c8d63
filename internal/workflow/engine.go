package workflow

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/events"
)

// Subject is a ledger record as the engine sees it.
type Subject struct {
	ID                int64
	OwnerID           int64
	OwnerSupervisorID *int64
	Status            Status
}

func (s Subject) Resource(ledger auth.Ledger) auth.Resource {
	return auth.Resource{
		Ledger:            ledger,
		OwnerID:           s.OwnerID,
		OwnerSupervisorID: s.OwnerSupervisorID,
	}
}

// DecideFunc receives the locked record and returns its new status.
type DecideFunc func(Subject) (Status, error)

// Store is implemented by each ledger repository.
type Store interface {
	Ledger() auth.Ledger
	// UpdateStatus loads record id and its owner's supervisor inside one
	// transaction, calls decide and persists the returned status. When
	// decide fails nothing is written and its error is returned as is.
	UpdateStatus(ctx context.Context, id int64, decide DecideFunc) (Subject, error)
}

type Engine struct {
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewEngine(policy *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// CanTransition reports whether actor may apply action to subject.
func (e *Engine) CanTransition(actor *auth.User, ledger auth.Ledger, subject Subject, action Action) bool {
	return e.policy.CanTransition(actor, action.Permission(), subject.Resource(ledger))
}

// Apply authorizes and performs an approve or reject on record id.
func (e *Engine) Apply(ctx context.Context, actor *auth.User, store Store, id int64, action Action) (Subject, error) {
	if actor == nil {
		return Subject{}, internal.ErrRoleForbidden
	}
	ledger := store.Ledger()

	var from Status
	updated, err := store.UpdateStatus(ctx, id, func(s Subject) (Status, error) {
		if !e.CanTransition(actor, ledger, s, action) {
			return "", internal.ErrRoleForbidden
		}
		from = s.Status
		return Transition(s.Status, action)
	})
	if err != nil {
		e.logger.Warn("status change refused",
			"ledger", ledger,
			"record_id", id,
			"actor_id", actor.ID,
			"action", action,
			"error", err)
		return Subject{}, err
	}

	e.logger.Info("status changed",
		"ledger", ledger,
		"record_id", id,
		"actor_id", actor.ID,
		"from", from,
		"to", updated.Status)

	if e.publisher != nil {
		event := events.NewStatusChangedEvent(string(ledger), id, updated.OwnerID, actor.ID, string(action), string(from), string(updated.Status))
		if err := e.publisher.Publish(ctx, event); err != nil {
			e.logger.Error("failed to publish status change", "record_id", id, "error", err)
		}
	}

	return updated, nil
}
