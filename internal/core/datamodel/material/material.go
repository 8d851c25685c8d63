package material

import "time"

type Request struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"column:user_id;not null;index"`
	ItemName    string    `gorm:"column:item_name;size:200;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	Unit        *string   `gorm:"column:unit;size:50"`
	Description *string   `gorm:"column:description"`
	PhotoKey    *string   `gorm:"column:photo_key;size:255"`
	Status      string    `gorm:"column:status;size:10;not null;default:pending;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Request) TableName() string {
	return "material_requests"
}

// RequestWithSubmitter is the row shape of the management listing, which
// joins the submitting user's name onto each request.
type RequestWithSubmitter struct {
	Request           `gorm:"embedded"`
	SubmitterUsername string `gorm:"column:submitter_username"`
}
