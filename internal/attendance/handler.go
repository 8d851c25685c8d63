package attendance

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

type ServiceAPI interface {
	ClockIn(ctx context.Context, actor *auth.User, geo *Geo) (*Record, error)
	ClockOut(ctx context.Context, actor *auth.User, geo *Geo) (*Record, error)
	ListMine(ctx context.Context, actor *auth.User, limit, offset int) ([]*Record, error)
	ListForManagement(ctx context.Context, actor *auth.User, limit, offset int) ([]*Record, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Record, error)
	SetHoursManually(ctx context.Context, actor *auth.User, id int64, hours float64) (*Record, error)
	Approve(ctx context.Context, actor *auth.User, id int64) (*Record, error)
	Reject(ctx context.Context, actor *auth.User, id int64) (*Record, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

var errUnauthenticated = internal.NewUnauthorizedError("Please log in to continue", internal.ErrCodeInvalidToken)

// ClockIn handles POST /attendance/clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}

	dto := ClockDTOFromRequest(r)
	rec, err := h.Service.ClockIn(r.Context(), actor, dto.Geo())
	if err != nil {
		h.Fail(w, r, err, failTarget(actor, err))
		return
	}

	h.Respond(w, r, transport.Result{
		Status:   http.StatusCreated,
		Message:  "Clocked in at " + rec.ClockIn.Format("15:04") + ".",
		Data:     rec,
		Redirect: transport.ViewAttendance,
	})
}

// ClockOut handles POST /attendance/clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}

	dto := ClockDTOFromRequest(r)
	rec, err := h.Service.ClockOut(r.Context(), actor, dto.Geo())
	if err != nil {
		h.Fail(w, r, err, failTarget(actor, err))
		return
	}

	msg := "Clocked out at " + rec.ClockOut.Format("15:04") + "."
	if rec.TotalHours != nil {
		msg = fmt.Sprintf("Clocked out at %s. Total hours: %.2f", rec.ClockOut.Format("15:04"), *rec.TotalHours)
	}
	h.Respond(w, r, transport.Result{
		Message:  msg,
		Data:     rec,
		Redirect: transport.ViewAttendance,
	})
}

// ListMine handles GET /attendance
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}

	limit, offset := transport.Pagination(r)
	records, err := h.Service.ListMine(r.Context(), actor, limit, offset)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"limit":   limit,
		"offset":  offset,
	})
}

// ListForManagement handles GET /attendance/manage
func (h *Handler) ListForManagement(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}

	limit, offset := transport.Pagination(r)
	records, err := h.Service.ListForManagement(r.Context(), actor, limit, offset)
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendance)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get handles GET /attendance/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	rec, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rec)
}

// SetHours handles POST /attendance/{id}/hours
func (h *Handler) SetHours(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendanceManage)
		return
	}

	dto, err := SetHoursDTOFromRequest(r)
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendanceManage)
		return
	}
	hours, err := dto.Hours()
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendanceManage)
		return
	}

	rec, err := h.Service.SetHoursManually(r.Context(), actor, id, hours)
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendanceManage)
		return
	}

	h.Respond(w, r, transport.Result{
		Message:  fmt.Sprintf("Hours updated to %.2f.", hours),
		Data:     rec,
		Redirect: transport.ViewAttendanceManage,
	})
}

// Approve handles POST /attendance/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve, "approved")
}

// Reject handles POST /attendance/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject, "rejected")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, *auth.User, int64) (*Record, error), pastTense string) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendanceManage)
		return
	}

	rec, err := fn(r.Context(), actor, id)
	if err != nil {
		h.Fail(w, r, err, transport.ViewAttendanceManage)
		return
	}

	h.Respond(w, r, transport.Result{
		Message:  "Attendance " + pastTense + ".",
		Data:     rec,
		Redirect: transport.ViewAttendanceManage,
	})
}

// failTarget sends management back to their dashboard when they try to
// clock in or out; everyone else returns to their attendance page.
func failTarget(actor *auth.User, err error) string {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeForbidden {
		return transport.LandingView(actor.Role)
	}
	return transport.ViewAttendance
}
