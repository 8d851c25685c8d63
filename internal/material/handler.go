package material

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/storage"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, actor *auth.User, dto SubmitDTO) ([]*Request, error)
	ListVisible(ctx context.Context, actor *auth.User, limit, offset int) ([]*Request, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Request, error)
	Photo(ctx context.Context, actor *auth.User, id int64) (*storage.Object, error)
	Approve(ctx context.Context, actor *auth.User, id int64) (*Request, error)
	Reject(ctx context.Context, actor *auth.User, id int64) (*Request, error)
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	MaxPhotoBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, maxPhotoBytes int64) *Handler {
	return &Handler{
		BaseHandler:   baseHandler,
		Service:       svc,
		MaxPhotoBytes: maxPhotoBytes,
	}
}

var errUnauthenticated = internal.NewUnauthorizedError("Please log in to continue", internal.ErrCodeInvalidToken)

// Submit handles POST /material-requests
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}

	dto, err := SubmitDTOFromRequest(r, h.MaxPhotoBytes)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		h.Fail(w, r, err, transport.ViewMaterialAdd)
		return
	}

	requests, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		target := transport.ViewMaterialAdd
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeForbidden {
			target = transport.ViewMaterialRequests
		}
		h.Fail(w, r, err, target)
		return
	}

	h.Respond(w, r, transport.Result{
		Status:   http.StatusCreated,
		Message:  "Material request submitted successfully!",
		Data:     requests,
		Redirect: transport.LandingView(actor.Role),
	})
}

// List handles GET /material-requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}

	limit, offset := transport.Pagination(r)
	requests, err := h.Service.ListVisible(r.Context(), actor, limit, offset)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get handles GET /material-requests/{id}
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

	req, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

// Photo handles GET /material-requests/{id}/photo
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
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

	obj, err := h.Service.Photo(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.Logger.Warn("photo stream interrupted", "request_id", id, "error", err)
	}
}

// Approve handles POST /material-requests/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve, "approved")
}

// Reject handles POST /material-requests/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject, "rejected")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, *auth.User, int64) (*Request, error), pastTense string) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.Fail(w, r, err, transport.ViewMaterialRequests)
		return
	}

	req, err := fn(r.Context(), actor, id)
	if err != nil {
		h.Fail(w, r, err, transport.ViewMaterialRequests)
		return
	}

	h.Respond(w, r, transport.Result{
		Message:  fmt.Sprintf("Material request %s.", pastTense),
		Data:     req,
		Redirect: transport.ViewMaterialRequests,
	})
}
