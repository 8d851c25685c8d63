package attendance

import "time"

type Record struct {
	ID             int64      `gorm:"primaryKey"`
	UserID         int64      `gorm:"column:user_id;not null;index;uniqueIndex:ux_attendance_open_shift,where:clock_out IS NULL AND clock_in IS NOT NULL"`
	ClockIn        *time.Time `gorm:"column:clock_in"`
	ClockOut       *time.Time `gorm:"column:clock_out"`
	TotalHours     *float64   `gorm:"column:total_hours;type:decimal(6,2)"`
	AttendanceType string     `gorm:"column:attendance_type;size:10;not null;default:present"`
	Status         string     `gorm:"column:status;size:10;not null;default:pending;index"`
	Latitude       *float64   `gorm:"column:latitude"`
	Longitude      *float64   `gorm:"column:longitude"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "attendance_records"
}
