package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/transport"
)

// RBACAuthorization gates whole route groups by role. Record-level checks
// stay in the services through Policy.
type RBACAuthorization struct {
	checker PermissionChecker
	base    *transport.BaseHandler
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		checker: checker,
		base:    transport.NewBaseHandler(logger),
		logger:  logger,
	}
}

// RequireRoles lets the request through when the actor has one of roles.
// Denied browsers are sent to their own landing page.
func (ra *RBACAuthorization) RequireRoles(roles ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context")
				ra.base.Fail(w, r, ErrInvalidToken, transport.ViewLogin)
				return
			}

			if !ra.checker.HasAnyRole(user, roles...) {
				ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				ra.base.Fail(w, r, internal.ErrRoleForbidden, transport.LandingView(user.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(role.Admin)
}

func (ra *RBACAuthorization) RequireManagement() func(http.Handler) http.Handler {
	return ra.RequireRoles(role.Admin, role.Supervisor)
}
