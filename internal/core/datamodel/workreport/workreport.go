package workreport

import "time"

type WorkReport struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"column:user_id;not null;index"`
	TaskName    string    `gorm:"column:task_name;size:255;not null"`
	Description string    `gorm:"column:description;not null"`
	HoursWorked float64   `gorm:"column:hours_worked;type:decimal(5,2);not null"`
	Status      string    `gorm:"column:status;size:20;not null;default:in_progress;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (WorkReport) TableName() string {
	return "work_reports"
}
