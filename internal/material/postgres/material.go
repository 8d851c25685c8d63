package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/electrotrack/internal/auth"
	materialDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/material"
	"github.com/frahmantamala/electrotrack/internal/material"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	workflowPostgres "github.com/frahmantamala/electrotrack/internal/workflow/postgres"
	"gorm.io/gorm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) material.Repository {
	return &MaterialRepository{db: db}
}

// NewStatusStore exposes material_requests to the workflow engine.
func NewStatusStore(db *gorm.DB) workflow.Store {
	return workflowPostgres.NewStatusStore(db, materialDatamodel.Request{}.TableName(), auth.LedgerMaterial, material.ErrNotFound)
}

type requestRow struct {
	materialDatamodel.RequestWithSubmitter `gorm:"embedded"`
	OwnerSupervisorID                      *int64 `gorm:"column:owner_supervisor_id"`
}

func (r requestRow) toDomain() *material.Request {
	req := material.FromDataModel(&r.Request)
	req.SubmitterUsername = r.SubmitterUsername
	req.OwnerSupervisorID = r.OwnerSupervisorID
	return req
}

func (r *MaterialRepository) CreateBatch(ctx context.Context, requests []*material.Request) error {
	if len(requests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]*materialDatamodel.Request, len(requests))
		for i, req := range requests {
			rows[i] = material.ToDataModel(req)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("create %d material requests: %w", len(rows), err)
		}
		for i, row := range rows {
			requests[i].ID = row.ID
			requests[i].CreatedAt = row.CreatedAt
			requests[i].UpdatedAt = row.UpdatedAt
		}
		return nil
	})
}

func (r *MaterialRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(materialDatamodel.Request{}.TableName() + " AS m").
		Select("m.*, u.username AS submitter_username, u.supervisor_id AS owner_supervisor_id").
		Joins("JOIN users u ON u.id = m.user_id")
}

func (r *MaterialRepository) GetByID(ctx context.Context, id int64) (*material.Request, error) {
	var row requestRow
	res := r.query(ctx).Where("m.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("get material request %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, material.ErrNotFound
	}
	return row.toDomain(), nil
}

func (r *MaterialRepository) List(ctx context.Context, filter material.ListFilter) ([]*material.Request, error) {
	q := r.query(ctx).Order("m.created_at DESC, m.id DESC")
	if filter.UserID != nil {
		q = q.Where("m.user_id = ?", *filter.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []requestRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list material requests: %w", err)
	}

	out := make([]*material.Request, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
