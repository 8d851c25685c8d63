package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;size:150;uniqueIndex;not null"`
	Email        string    `gorm:"column:email;size:254"`
	FirstName    string    `gorm:"column:first_name;size:150"`
	LastName     string    `gorm:"column:last_name;size:150"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;size:20;not null;default:electrician;index"`
	SiteLocation *string   `gorm:"column:site_location;size:200"`
	SupervisorID *int64    `gorm:"column:supervisor_id;index"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
