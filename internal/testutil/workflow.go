package testutil

import (
	"context"
	"sync"

	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

// StatusStore is an in-memory workflow.Store. Tests register subjects with
// Put and read them back with Status.
type StatusStore struct {
	mu       sync.Mutex
	ledger   auth.Ledger
	notFound error
	subjects map[int64]workflow.Subject
	writes   int
}

func NewStatusStore(ledger auth.Ledger, notFound error) *StatusStore {
	return &StatusStore{
		ledger:   ledger,
		notFound: notFound,
		subjects: make(map[int64]workflow.Subject),
	}
}

func (s *StatusStore) Ledger() auth.Ledger {
	return s.ledger
}

func (s *StatusStore) Put(subject workflow.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.ID] = subject
}

func (s *StatusStore) Status(id int64) workflow.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subjects[id].Status
}

// Writes counts successful status updates.
func (s *StatusStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *StatusStore) UpdateStatus(ctx context.Context, id int64, decide workflow.DecideFunc) (workflow.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[id]
	if !ok {
		return workflow.Subject{}, s.notFound
	}
	next, err := decide(subject)
	if err != nil {
		return workflow.Subject{}, err
	}
	subject.Status = next
	s.subjects[id] = subject
	s.writes++
	return subject, nil
}
