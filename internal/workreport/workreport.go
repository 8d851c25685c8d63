package workreport

import (
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	workreportDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/workreport"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

type WorkReport struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	TaskName    string          `json:"task_name"`
	Description string          `json:"description"`
	HoursWorked float64         `json:"hours_worked"`
	Status      workflow.Status `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Username          string `json:"username,omitempty"`
	OwnerSupervisorID *int64 `json:"-"`
}

func (w *WorkReport) Subject() workflow.Subject {
	return workflow.Subject{
		ID:                w.ID,
		OwnerID:           w.UserID,
		OwnerSupervisorID: w.OwnerSupervisorID,
		Status:            w.Status,
	}
}

// InitialStatus is the status of a report whose submitter picked none.
const InitialStatus = workflow.StatusInProgress

// SubmittableStatuses are the values a submitter may choose; decisions are
// left to reviewers.
var SubmittableStatuses = []workflow.Status{
	workflow.StatusInProgress,
	workflow.StatusCompleted,
	workflow.StatusPending,
}

var ErrNotFound = internal.NewNotFoundError("Work report not found", internal.ErrCodeWorkReportNotFound)

func ToDataModel(w *WorkReport) *workreportDatamodel.WorkReport {
	return &workreportDatamodel.WorkReport{
		ID:          w.ID,
		UserID:      w.UserID,
		TaskName:    w.TaskName,
		Description: w.Description,
		HoursWorked: w.HoursWorked,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func FromDataModel(m *workreportDatamodel.WorkReport) *WorkReport {
	return &WorkReport{
		ID:          m.ID,
		UserID:      m.UserID,
		TaskName:    m.TaskName,
		Description: m.Description,
		HoursWorked: m.HoursWorked,
		Status:      workflow.Status(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
