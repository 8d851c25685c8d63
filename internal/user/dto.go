package user

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/core/common/validation"
	"github.com/frahmantamala/electrotrack/internal/core/role"
)

type CreateUserDTO struct {
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	SiteLocation *string `json:"site_location,omitempty"`
	SupervisorID *int64  `json:"supervisor_id,omitempty"`
}

// UpdateUserDTO is a partial update; nil fields are left unchanged.
type UpdateUserDTO struct {
	Username        *string `json:"username,omitempty"`
	Email           *string `json:"email,omitempty"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Password        *string `json:"password,omitempty"`
	Role            *string `json:"role,omitempty"`
	SiteLocation    *string `json:"site_location,omitempty"`
	SupervisorID    *int64  `json:"supervisor_id,omitempty"`
	ClearSupervisor bool    `json:"clear_supervisor,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

func roleNames() []string {
	roles := role.All()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
	if d.Role == "" {
		d.Role = string(role.Default)
	}
	if d.SiteLocation != nil && strings.TrimSpace(*d.SiteLocation) == "" {
		d.SiteLocation = nil
	}
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(150)
	v.Field("email", d.Email).MaxLength(254).Email()
	v.Field("first_name", d.FirstName).MaxLength(150)
	v.Field("last_name", d.LastName).MaxLength(150)
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	v.Field("role", d.Role).Required().OneOf(roleNames(), internal.ErrCodeInvalidRole)
	v.Field("site_location", d.SiteLocation).MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d *UpdateUserDTO) Normalize() {
	if d.Username != nil {
		s := strings.TrimSpace(*d.Username)
		d.Username = &s
	}
	if d.Role != nil {
		s := strings.ToLower(strings.TrimSpace(*d.Role))
		d.Role = &s
	}
	if d.Password != nil && *d.Password == "" {
		d.Password = nil
	}
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Username != nil {
		v.Field("username", *d.Username).Required().MaxLength(150)
	}
	if d.Email != nil {
		v.Field("email", *d.Email).MaxLength(254).Email()
	}
	if d.Password != nil {
		v.Field("password", *d.Password).MinLength(8).MaxLength(72)
	}
	if d.Role != nil {
		v.Field("role", *d.Role).Required().OneOf(roleNames(), internal.ErrCodeInvalidRole)
	}
	v.Field("site_location", d.SiteLocation).MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// CreateUserDTOFromForm reads the add-user form.
func CreateUserDTOFromForm(r *http.Request) CreateUserDTO {
	dto := CreateUserDTO{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Password:  r.PostFormValue("password"),
		Role:      r.PostFormValue("role"),
	}
	if s := r.PostFormValue("site_location"); s != "" {
		dto.SiteLocation = &s
	}
	dto.SupervisorID = formInt64(r, "supervisor_id")
	return dto
}

// UpdateUserDTOFromForm reads the edit-user form. Only submitted fields are
// applied; an empty supervisor_id clears the assignment.
func UpdateUserDTOFromForm(r *http.Request) UpdateUserDTO {
	var dto UpdateUserDTO
	_ = r.ParseForm()
	str := func(key string) *string {
		if _, ok := r.PostForm[key]; !ok {
			return nil
		}
		s := r.PostForm.Get(key)
		return &s
	}
	dto.Username = str("username")
	dto.Email = str("email")
	dto.FirstName = str("first_name")
	dto.LastName = str("last_name")
	dto.Password = str("password")
	dto.Role = str("role")
	dto.SiteLocation = str("site_location")
	if _, ok := r.PostForm["supervisor_id"]; ok {
		dto.SupervisorID = formInt64(r, "supervisor_id")
		dto.ClearSupervisor = dto.SupervisorID == nil
	}
	if s := str("is_active"); s != nil {
		b := *s == "on" || *s == "true" || *s == "1"
		dto.IsActive = &b
	}
	return dto
}

func formInt64(r *http.Request, key string) *int64 {
	s := strings.TrimSpace(r.PostFormValue(key))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
