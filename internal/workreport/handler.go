package workreport

import (
	"context"
	"net/http"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, actor *auth.User, dto SubmitDTO) (*WorkReport, error)
	ListVisible(ctx context.Context, actor *auth.User, limit, offset int) ([]*WorkReport, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*WorkReport, error)
	Approve(ctx context.Context, actor *auth.User, id int64) (*WorkReport, error)
	Reject(ctx context.Context, actor *auth.User, id int64) (*WorkReport, error)
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

// Submit handles POST /work-reports. Scripts sending
// X-Requested-With: XMLHttpRequest get JSON; form posts are redirected.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}

	dto, err := SubmitDTOFromRequest(r)
	if err != nil {
		h.Fail(w, r, err, transport.ViewWorkReportAdd)
		return
	}

	report, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.Fail(w, r, err, transport.ViewWorkReportAdd)
		return
	}

	h.Respond(w, r, transport.Result{
		Status:   http.StatusCreated,
		Message:  "Work report submitted successfully!",
		Data:     report,
		Redirect: transport.ViewWorkReports,
	})
}

// List handles GET /work-reports
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}

	limit, offset := transport.Pagination(r)
	reports, err := h.Service.ListVisible(r.Context(), actor, limit, offset)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get handles GET /work-reports/{id}
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

	report, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

// Approve handles POST /work-reports/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve, "Work report approved.")
}

// Reject handles POST /work-reports/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject, "Work report rejected.")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, *auth.User, int64) (*WorkReport, error), message string) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.Fail(w, r, err, transport.ViewWorkReports)
		return
	}

	report, err := fn(r.Context(), actor, id)
	if err != nil {
		h.Fail(w, r, err, transport.ViewWorkReports)
		return
	}

	h.Respond(w, r, transport.Result{
		Message:  message,
		Data:     report,
		Redirect: transport.ViewWorkReports,
	})
}
