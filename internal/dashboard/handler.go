package dashboard

import (
	"context"
	"net/http"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

type ServiceAPI interface {
	Summary(ctx context.Context, actor *auth.User) (*Summary, error)
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

// Get handles GET /dashboard
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Please log in to continue", internal.ErrCodeInvalidToken))
		return
	}

	sum, err := h.Service.Summary(r.Context(), actor)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sum)
}
