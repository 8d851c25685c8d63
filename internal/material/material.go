package material

import (
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	materialDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/material"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

// PhotoPrefix is the object-store folder holding request photos.
const PhotoPrefix = "material_photos"

// Request is one line item of a requisition. A batch submitted together
// shares unit, description and photo.
type Request struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	ItemName    string          `json:"item_name"`
	Quantity    int             `json:"quantity"`
	Unit        *string         `json:"unit,omitempty"`
	Description *string         `json:"description,omitempty"`
	PhotoKey    *string         `json:"-"`
	HasPhoto    bool            `json:"has_photo"`
	Status      workflow.Status `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	SubmitterUsername string `json:"submitter_username,omitempty"`
	OwnerSupervisorID *int64 `json:"-"`
}

func (m *Request) Subject() workflow.Subject {
	return workflow.Subject{
		ID:                m.ID,
		OwnerID:           m.UserID,
		OwnerSupervisorID: m.OwnerSupervisorID,
		Status:            m.Status,
	}
}

// Line is a validated (name, quantity) pair.
type Line struct {
	ItemName string
	Quantity int
}

var (
	ErrNotFound        = internal.NewNotFoundError("Material request not found", internal.ErrCodeMaterialNotFound)
	ErrNoItems         = internal.NewValidationError("Please enter at least one material item.", internal.ErrCodeNoMaterialItems)
	ErrPhotoNotFound   = internal.NewNotFoundError("This request has no photo", internal.ErrCodePhotoNotFound)
	ErrInvalidPhoto    = internal.NewValidationFieldError("photo", "photo must be a JPEG, PNG, GIF or WebP image", internal.ErrCodeInvalidPhoto)
	ErrStorageDisabled = internal.NewValidationError("Photo uploads are not enabled", internal.ErrCodeStorageDisabled)
)

func ToDataModel(m *Request) *materialDatamodel.Request {
	return &materialDatamodel.Request{
		ID:          m.ID,
		UserID:      m.UserID,
		ItemName:    m.ItemName,
		Quantity:    m.Quantity,
		Unit:        m.Unit,
		Description: m.Description,
		PhotoKey:    m.PhotoKey,
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromDataModel(d *materialDatamodel.Request) *Request {
	return &Request{
		ID:          d.ID,
		UserID:      d.UserID,
		ItemName:    d.ItemName,
		Quantity:    d.Quantity,
		Unit:        d.Unit,
		Description: d.Description,
		PhotoKey:    d.PhotoKey,
		HasPhoto:    d.PhotoKey != nil && *d.PhotoKey != "",
		Status:      workflow.Status(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
