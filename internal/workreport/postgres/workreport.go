package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/electrotrack/internal/auth"
	workreportDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/workreport"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	workflowPostgres "github.com/frahmantamala/electrotrack/internal/workflow/postgres"
	"github.com/frahmantamala/electrotrack/internal/workreport"
	"gorm.io/gorm"
)

type WorkReportRepository struct {
	db *gorm.DB
}

func NewWorkReportRepository(db *gorm.DB) workreport.Repository {
	return &WorkReportRepository{db: db}
}

// NewStatusStore exposes work_reports to the workflow engine.
func NewStatusStore(db *gorm.DB) workflow.Store {
	return workflowPostgres.NewStatusStore(db, workreportDatamodel.WorkReport{}.TableName(), auth.LedgerWorkReport, workreport.ErrNotFound)
}

type reportRow struct {
	workreportDatamodel.WorkReport `gorm:"embedded"`
	Username                       string `gorm:"column:username"`
	OwnerSupervisorID              *int64 `gorm:"column:owner_supervisor_id"`
}

func (r reportRow) toDomain() *workreport.WorkReport {
	report := workreport.FromDataModel(&r.WorkReport)
	report.Username = r.Username
	report.OwnerSupervisorID = r.OwnerSupervisorID
	return report
}

func (r *WorkReportRepository) Create(ctx context.Context, report *workreport.WorkReport) error {
	row := workreport.ToDataModel(report)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create work report: %w", err)
	}
	report.ID = row.ID
	report.CreatedAt = row.CreatedAt
	report.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *WorkReportRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(workreportDatamodel.WorkReport{}.TableName() + " AS w").
		Select("w.*, u.username AS username, u.supervisor_id AS owner_supervisor_id").
		Joins("JOIN users u ON u.id = w.user_id")
}

func (r *WorkReportRepository) GetByID(ctx context.Context, id int64) (*workreport.WorkReport, error) {
	var row reportRow
	res := r.query(ctx).Where("w.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("get work report %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, workreport.ErrNotFound
	}
	return row.toDomain(), nil
}

func (r *WorkReportRepository) List(ctx context.Context, filter workreport.ListFilter) ([]*workreport.WorkReport, error) {
	q := r.query(ctx).Order("w.created_at DESC, w.id DESC")
	if filter.UserID != nil {
		q = q.Where("w.user_id = ?", *filter.UserID)
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

	var rows []reportRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list work reports: %w", err)
	}

	out := make([]*workreport.WorkReport, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
