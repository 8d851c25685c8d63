package attendance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/core/common/validation"
	attendanceDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/attendance"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

type Type string

const (
	TypePresent Type = "present"
	TypeAbsent  Type = "absent"
	TypeLeave   Type = "leave"
)

type Record struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	ClockIn        *time.Time      `json:"clock_in,omitempty"`
	ClockOut       *time.Time      `json:"clock_out,omitempty"`
	TotalHours     *float64        `json:"total_hours,omitempty"`
	AttendanceType Type            `json:"attendance_type"`
	Status         workflow.Status `json:"status"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	MapURL         string          `json:"map_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Username and OwnerSupervisorID are filled by queries that join users.
	Username          string `json:"username,omitempty"`
	OwnerSupervisorID *int64 `json:"-"`
}

// Open is true while the shift has been started but not finished.
func (r *Record) Open() bool {
	return r.ClockIn != nil && r.ClockOut == nil
}

func (r *Record) Subject() workflow.Subject {
	return workflow.Subject{
		ID:                r.ID,
		OwnerID:           r.UserID,
		OwnerSupervisorID: r.OwnerSupervisorID,
		Status:            r.Status,
	}
}

// Close finishes the shift at t and recomputes the total.
func (r *Record) Close(t time.Time, geo *Geo) {
	r.ClockOut = &t
	if r.ClockIn != nil {
		hours := ComputeTotalHours(*r.ClockIn, t)
		r.TotalHours = &hours
	}
	r.setGeo(geo)
}

func (r *Record) setGeo(geo *Geo) {
	if geo == nil {
		r.Latitude, r.Longitude = nil, nil
		return
	}
	lat, lon := geo.Latitude, geo.Longitude
	r.Latitude, r.Longitude = &lat, &lon
}

// ComputeTotalHours is the elapsed time in hours rounded to two decimals.
func ComputeTotalHours(clockIn, clockOut time.Time) float64 {
	return validation.Round2(clockOut.Sub(clockIn).Seconds() / 3600)
}

// Geo is a validated latitude/longitude pair.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParseGeolocation returns nil unless both values parse as finite numbers
// in range. Bad coordinates are dropped, never rejected.
func ParseGeolocation(lat, lon string) *Geo {
	la, ok := parseCoord(lat, 90)
	if !ok {
		return nil
	}
	lo, ok := parseCoord(lon, 180)
	if !ok {
		return nil
	}
	return &Geo{Latitude: la, Longitude: lo}
}

func parseCoord(s string, limit float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

// MapLink points at the recorded position on Google Maps.
func MapLink(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(*lat, 'f', -1, 64),
		strconv.FormatFloat(*lon, 'f', -1, 64))
}

var (
	ErrNotFound        = internal.NewNotFoundError("Attendance record not found", internal.ErrCodeAttendanceNotFound)
	ErrNoOpenShift     = internal.NewConflictError("No active clock-in found for today.", internal.ErrCodeNoOpenShift)
	ErrOpenShiftExists = internal.NewConflictError("You are already clocked in.", internal.ErrCodeOpenShiftExists)
	ErrClockBusy       = internal.NewConflictError("Another clock request is in progress, please retry.", internal.ErrCodeClockBusy)
)

func ToDataModel(r *Record) *attendanceDatamodel.Record {
	return &attendanceDatamodel.Record{
		ID:             r.ID,
		UserID:         r.UserID,
		ClockIn:        r.ClockIn,
		ClockOut:       r.ClockOut,
		TotalHours:     r.TotalHours,
		AttendanceType: string(r.AttendanceType),
		Status:         string(r.Status),
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func FromDataModel(m *attendanceDatamodel.Record) *Record {
	return &Record{
		ID:             m.ID,
		UserID:         m.UserID,
		ClockIn:        m.ClockIn,
		ClockOut:       m.ClockOut,
		TotalHours:     m.TotalHours,
		AttendanceType: Type(m.AttendanceType),
		Status:         workflow.Status(m.Status),
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		MapURL:         MapLink(m.Latitude, m.Longitude),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
