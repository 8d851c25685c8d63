package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/frahmantamala/electrotrack/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	CookieSecure bool
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, cookieSecure bool) *Handler {
	return &Handler{
		BaseHandler:  baseHandler,
		Service:      svc,
		CookieSecure: cookieSecure,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if transport.IsJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.Fail(w, r, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed), transport.ViewLogin)
			return
		}
	} else {
		dto.Username = r.PostFormValue("username")
		dto.Password = r.PostFormValue("password")
	}

	result, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Fail(w, r, err, transport.ViewLogin)
		return
	}

	h.setSessionCookie(w, result.Tokens.AccessToken, result.Tokens.ExpiresAt)
	h.Respond(w, r, transport.Result{
		Message:  "Welcome back, " + result.User.Username + "!",
		Data:     result,
		Redirect: result.Redirect,
	})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Info("token refresh failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.setSessionCookie(w, tokens.AccessToken, tokens.ExpiresAt)
	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout clears the session cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     transport.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.Respond(w, r, transport.Result{
		Message:  "You have been logged out.",
		Redirect: transport.ViewLogin,
	})
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractToken(r)
		if token == "" {
			h.Fail(w, r, internal.NewUnauthorizedError("Please log in to continue", internal.ErrCodeInvalidToken), transport.ViewLogin)
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Debug("token validation failed", "error", err)
			h.Fail(w, r, err, transport.ViewLogin)
			return
		}

		uid, err := claims.UserIDInt()
		if err != nil {
			h.Logger.Warn("failed to parse user id from token claims", "value", claims.UserID, "error", err)
			h.Fail(w, r, ErrInvalidToken, transport.ViewLogin)
			return
		}

		user, err := h.Service.GetUser(r.Context(), uid)
		if err != nil {
			h.Logger.Warn("auth middleware: failed to load user", "user_id", uid, "error", err)
			h.Fail(w, r, ErrInvalidToken, transport.ViewLogin)
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "user_id", user.ID, "role", string(user.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	c := &http.Cookie{
		Name:     transport.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expiresAt.IsZero() {
		c.Expires = expiresAt
	}
	http.SetCookie(w, c)
}
