package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/electrotrack/internal/auth"
	attendanceDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/attendance"
	materialDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/material"
	workreportDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/workreport"
	"github.com/frahmantamala/electrotrack/internal/dashboard"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	"github.com/jmoiron/sqlx"
)

var ledgerTables = map[auth.Ledger]string{
	auth.LedgerAttendance: attendanceDatamodel.Record{}.TableName(),
	auth.LedgerWorkReport: workreportDatamodel.WorkReport{}.TableName(),
	auth.LedgerMaterial:   materialDatamodel.Request{}.TableName(),
}

// DashboardRepository runs the aggregate queries on plain SQL.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) dashboard.Repository {
	return &DashboardRepository{db: db}
}

type statusCount struct {
	Status string `db:"status"`
	Total  int64  `db:"total"`
}

func (r *DashboardRepository) CountByStatus(ctx context.Context, ledger auth.Ledger, scope dashboard.Scope) (dashboard.StatusCounts, error) {
	table, ok := ledgerTables[ledger]
	if !ok {
		return nil, fmt.Errorf("unknown ledger %q", ledger)
	}

	query := "SELECT t.status, COUNT(*) AS total FROM " + table + " t JOIN users u ON u.id = t.user_id WHERE 1 = 1"
	var args []interface{}
	if scope.UserID != nil {
		query += " AND t.user_id = ?"
		args = append(args, *scope.UserID)
	}
	if scope.SupervisorID != nil {
		query += " AND u.supervisor_id = ?"
		args = append(args, *scope.SupervisorID)
	}
	query += " GROUP BY t.status"

	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("count %s by status: %w", table, err)
	}

	counts := make(dashboard.StatusCounts, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *DashboardRepository) HasOpenShift(ctx context.Context, userID int64) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM attendance_records
		WHERE user_id = ? AND clock_in IS NOT NULL AND clock_out IS NULL`)

	var n int64
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return false, fmt.Errorf("check open shift of user %d: %w", userID, err)
	}
	return n > 0, nil
}

func (r *DashboardRepository) ApprovedHours(ctx context.Context, userID int64) (float64, error) {
	query := r.db.Rebind(`SELECT COALESCE(SUM(total_hours), 0) FROM attendance_records
		WHERE user_id = ? AND status = ?`)

	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, userID, string(workflow.StatusApproved)); err != nil {
		return 0, fmt.Errorf("sum approved hours of user %d: %w", userID, err)
	}
	return hours, nil
}
