package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/electrotrack/internal/attendance"
	"github.com/frahmantamala/electrotrack/internal/auth"
	attendanceDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/attendance"
	userDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/user"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	workflowPostgres "github.com/frahmantamala/electrotrack/internal/workflow/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) attendance.Repository {
	return &AttendanceRepository{db: db}
}

// NewStatusStore exposes attendance_records to the workflow engine.
func NewStatusStore(db *gorm.DB) workflow.Store {
	return workflowPostgres.NewStatusStore(db, attendanceDatamodel.Record{}.TableName(), auth.LedgerAttendance, attendance.ErrNotFound)
}

type recordRow struct {
	attendanceDatamodel.Record `gorm:"embedded"`
	Username                   string `gorm:"column:username"`
	OwnerSupervisorID          *int64 `gorm:"column:owner_supervisor_id"`
}

func (r recordRow) toDomain() *attendance.Record {
	rec := attendance.FromDataModel(&r.Record)
	rec.Username = r.Username
	rec.OwnerSupervisorID = r.OwnerSupervisorID
	return rec
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func openShift(tx *gorm.DB, userID int64) *gorm.DB {
	return tx.Where("user_id = ? AND clock_in IS NOT NULL AND clock_out IS NULL", userID)
}

func (r *AttendanceRepository) Open(ctx context.Context, rec *attendance.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serializes concurrent clock-ins of the same user on Postgres.
		var owner userDatamodel.User
		if err := forUpdate(tx).Select("id").Where("id = ?", rec.UserID).Take(&owner).Error; err != nil {
			return fmt.Errorf("lock user %d: %w", rec.UserID, err)
		}

		var open int64
		if err := openShift(tx.Model(&attendanceDatamodel.Record{}), rec.UserID).Count(&open).Error; err != nil {
			return fmt.Errorf("count open shifts of user %d: %w", rec.UserID, err)
		}
		if open > 0 {
			return attendance.ErrOpenShiftExists
		}

		row := attendance.ToDataModel(rec)
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return attendance.ErrOpenShiftExists
			}
			return fmt.Errorf("create attendance record: %w", err)
		}
		rec.ID = row.ID
		rec.CreatedAt = row.CreatedAt
		rec.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (r *AttendanceRepository) CloseOpenShift(ctx context.Context, userID int64, fn func(*attendance.Record) error) (*attendance.Record, error) {
	var out *attendance.Record

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row attendanceDatamodel.Record
		err := openShift(forUpdate(tx), userID).Order("id DESC").Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return attendance.ErrNoOpenShift
			}
			return fmt.Errorf("find open shift of user %d: %w", userID, err)
		}

		rec := attendance.FromDataModel(&row)
		if err := fn(rec); err != nil {
			return err
		}

		updated := attendance.ToDataModel(rec)
		err = tx.Model(updated).
			Select("clock_out", "total_hours", "latitude", "longitude", "updated_at").
			Updates(updated).Error
		if err != nil {
			return fmt.Errorf("close shift %d: %w", rec.ID, err)
		}
		rec.UpdatedAt = updated.UpdatedAt
		out = rec
		return nil
	})

	return out, err
}

func (r *AttendanceRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(attendanceDatamodel.Record{}.TableName() + " AS a").
		Select("a.*, u.username AS username, u.supervisor_id AS owner_supervisor_id").
		Joins("JOIN users u ON u.id = a.user_id")
}

func (r *AttendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]*attendance.Record, error) {
	q := r.query(ctx).Order("a.id DESC")
	if filter.UserID != nil {
		q = q.Where("a.user_id = ?", *filter.UserID)
	}
	if filter.SupervisorID != nil {
		q = q.Where("u.supervisor_id = ?", *filter.SupervisorID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []recordRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	out := make([]*attendance.Record, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*attendance.Record, error) {
	var row recordRow
	res := r.query(ctx).Where("a.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("get attendance %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, attendance.ErrNotFound
	}
	return row.toDomain(), nil
}

func (r *AttendanceRepository) UpdateTotalHours(ctx context.Context, id int64, hours float64) error {
	res := r.db.WithContext(ctx).
		Model(&attendanceDatamodel.Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_hours": hours,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("update hours of attendance %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
