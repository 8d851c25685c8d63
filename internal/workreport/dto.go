package workreport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/core/common/validation"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

type SubmitDTO struct {
	TaskName    string                  `json:"task_name"`
	Description string                  `json:"description"`
	HoursWorked transport.LenientNumber `json:"hours_worked"`
	Status      string                  `json:"status,omitempty"`
}

func (d *SubmitDTO) Normalize() {
	d.TaskName = strings.TrimSpace(d.TaskName)
	d.Description = strings.TrimSpace(d.Description)
	d.HoursWorked = transport.LenientNumber(strings.TrimSpace(string(d.HoursWorked)))
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	if d.Status == "" {
		d.Status = string(InitialStatus)
	}
}

func statusNames() []string {
	out := make([]string, len(SubmittableStatuses))
	for i, s := range SubmittableStatuses {
		out[i] = string(s)
	}
	return out
}

// Validate checks the fields and returns the parsed, rounded hours.
func (d SubmitDTO) Validate() (float64, error) {
	v := validation.NewValidator()
	v.Field("task_name", d.TaskName).Required().MaxLength(255)
	v.Field("description", d.Description).Required()
	v.Field("hours_worked", string(d.HoursWorked)).Required()
	v.Field("status", d.Status).OneOf(statusNames(), internal.ErrCodeInvalidStatus)
	if err := v.Validate(); err != nil {
		return 0, err
	}

	hours, err := strconv.ParseFloat(string(d.HoursWorked), 64)
	if err != nil {
		return 0, internal.NewValidationFieldError("hours_worked", "hours_worked must be a number", internal.ErrCodeInvalidHours)
	}
	hours = validation.Round2(hours)
	if err := validation.ValidateHoursWorked(hours); err != nil {
		return 0, err
	}
	return hours, nil
}

// SubmitDTOFromRequest reads a JSON body or the submission form.
func SubmitDTOFromRequest(r *http.Request) (SubmitDTO, error) {
	var dto SubmitDTO
	if transport.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return dto, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
		return dto, nil
	}
	dto.TaskName = r.PostFormValue("task_name")
	dto.Description = r.PostFormValue("description")
	dto.HoursWorked = transport.LenientNumber(r.PostFormValue("hours_worked"))
	dto.Status = r.PostFormValue("status")
	return dto, nil
}
