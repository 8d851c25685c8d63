package attendance

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/core/common/validation"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

// ClockDTO takes coordinates as numbers or strings so that browser scripts
// can forward navigator.geolocation values untouched.
type ClockDTO struct {
	Latitude  transport.LenientNumber `json:"latitude"`
	Longitude transport.LenientNumber `json:"longitude"`
}

func (d ClockDTO) Geo() *Geo {
	return ParseGeolocation(string(d.Latitude), string(d.Longitude))
}

// ClockDTOFromRequest reads coordinates from a JSON body or form fields.
// A malformed body yields no coordinates rather than an error.
func ClockDTOFromRequest(r *http.Request) ClockDTO {
	var dto ClockDTO
	if transport.IsJSONBody(r) {
		_ = json.NewDecoder(r.Body).Decode(&dto)
		return dto
	}
	dto.Latitude = transport.LenientNumber(r.PostFormValue("latitude"))
	dto.Longitude = transport.LenientNumber(r.PostFormValue("longitude"))
	return dto
}

type SetHoursDTO struct {
	TotalHours string `json:"total_hours"`
}

// Hours validates and rounds the submitted value.
func (d SetHoursDTO) Hours() (float64, error) {
	raw := strings.TrimSpace(d.TotalHours)
	if raw == "" {
		return 0, internal.NewValidationFieldError("total_hours", "total_hours is required", internal.ErrCodeValidationFailed)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, internal.NewValidationFieldError("total_hours", "total_hours must be a number", internal.ErrCodeInvalidHours)
	}
	v = validation.Round2(v)
	if appErr := validation.ValidateShiftHours(v); appErr != nil {
		return 0, appErr
	}
	return v, nil
}

func SetHoursDTOFromRequest(r *http.Request) (SetHoursDTO, error) {
	var dto SetHoursDTO
	if transport.IsJSONBody(r) {
		var body struct {
			TotalHours transport.LenientNumber `json:"total_hours"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return dto, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
		dto.TotalHours = string(body.TotalHours)
		return dto, nil
	}
	dto.TotalHours = r.PostFormValue("total_hours")
	return dto, nil
}
