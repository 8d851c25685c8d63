package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, actor *auth.User) ([]*User, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*User, error)
	Me(ctx context.Context, actor *auth.User) (*User, error)
	Create(ctx context.Context, actor *auth.User, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, actor *auth.User, id int64, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, actor *auth.User, id int64) error
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}

	u, err := h.Service.Me(r.Context(), actor)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, errUnauthenticated)
		return
	}

	users, err := h.Service.List(r.Context(), actor)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
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

	u, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}

	var dto CreateUserDTO
	if transport.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.Fail(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed), transport.ViewUserAdd)
			return
		}
	} else {
		dto = CreateUserDTOFromForm(r)
	}

	u, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Fail(w, r, err, transport.ViewUserAdd)
		return
	}

	h.Respond(w, r, transport.Result{
		Status:   http.StatusCreated,
		Message:  "User " + u.Username + " created.",
		Data:     u,
		Redirect: transport.ViewUsers,
	})
}

// UpdateUser handles PUT /users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.Fail(w, r, err, transport.ViewUsers)
		return
	}
	editView := transport.ViewUsers + "/" + strconv.FormatInt(id, 10) + "/edit"

	var dto UpdateUserDTO
	if transport.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.Fail(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed), editView)
			return
		}
	} else {
		dto = UpdateUserDTOFromForm(r)
	}

	u, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.Fail(w, r, err, editView)
		return
	}

	h.Respond(w, r, transport.Result{
		Message:  "User " + u.Username + " updated.",
		Data:     u,
		Redirect: transport.ViewUsers,
	})
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, errUnauthenticated, transport.ViewLogin)
		return
	}
	id, err := transport.PathID(r, "id")
	if err != nil {
		h.Fail(w, r, err, transport.ViewUsers)
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.Fail(w, r, err, transport.ViewUsers)
		return
	}

	h.Respond(w, r, transport.Result{
		Message:  "User deleted.",
		Redirect: transport.ViewUsers,
	})
}
