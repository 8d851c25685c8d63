package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusStore implements workflow.Store for a ledger table that has id,
// user_id and status columns.
type StatusStore struct {
	db       *gorm.DB
	table    string
	ledger   auth.Ledger
	notFound error
}

func NewStatusStore(db *gorm.DB, table string, ledger auth.Ledger, notFound error) *StatusStore {
	return &StatusStore{
		db:       db,
		table:    table,
		ledger:   ledger,
		notFound: notFound,
	}
}

func (s *StatusStore) Ledger() auth.Ledger {
	return s.ledger
}

type subjectRow struct {
	ID           int64
	UserID       int64
	Status       string
	SupervisorID *int64
}

func (s *StatusStore) UpdateStatus(ctx context.Context, id int64, decide workflow.DecideFunc) (workflow.Subject, error) {
	var out workflow.Subject

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table(s.table+" AS r").
			Select("r.id, r.user_id, r.status, u.supervisor_id").
			Joins("LEFT JOIN users u ON u.id = r.user_id").
			Where("r.id = ?", id).
			Limit(1)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "r"}})
		}

		var row subjectRow
		res := q.Scan(&row)
		if res.Error != nil {
			return fmt.Errorf("load %s %d: %w", s.ledger, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return s.notFound
		}

		subject := workflow.Subject{
			ID:                row.ID,
			OwnerID:           row.UserID,
			OwnerSupervisorID: row.SupervisorID,
			Status:            workflow.Status(row.Status),
		}

		next, err := decide(subject)
		if err != nil {
			return err
		}

		err = tx.Table(s.table).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     string(next),
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("update %s %d status: %w", s.ledger, id, err)
		}

		subject.Status = next
		out = subject
		return nil
	})

	return out, err
}
