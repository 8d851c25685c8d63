package transport

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/frahmantamala/electrotrack/internal"
)

// FlashCookie holds the one-shot message shown by the view a client is
// redirected to.
const FlashCookie = "flash"

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashError   FlashLevel = "error"
)

type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

// Result is the outcome of a state-changing request.
type Result struct {
	Status   int
	Message  string
	Data     interface{}
	Redirect string
}

// MutationResponse is the JSON body programmatic callers receive for
// state-changing requests.
type MutationResponse struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message,omitempty"`
	Code     internal.ErrorCode  `json:"code,omitempty"`
	Data     interface{}         `json:"data,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// WantsJSON reports whether the caller is a script rather than a browser
// form post.
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return IsJSONBody(r)
}

// IsJSONBody reports whether the request body is JSON rather than a form.
func IsJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// Respond answers a successful mutation with JSON or a 303 redirect and a
// success flash.
func (h *BaseHandler) Respond(w http.ResponseWriter, r *http.Request, res Result) {
	if WantsJSON(r) {
		status := res.Status
		if status == 0 {
			status = http.StatusOK
		}
		h.WriteJSON(w, status, MutationResponse{
			Success:  true,
			Message:  res.Message,
			Data:     res.Data,
			Redirect: res.Redirect,
		})
		return
	}
	h.Redirect(w, r, res.Redirect, Flash{Level: FlashSuccess, Message: res.Message})
}

// Fail answers a failed mutation. Programmatic callers get the AppError
// status and code; browsers are redirected to target with a flash whose
// level follows the error kind. Unknown records and internal failures are
// never redirected.
func (h *BaseHandler) Fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("unhandled service error", "error", err, "path", r.URL.Path)
		appErr = internal.NewInternalError("Something went wrong, please try again.", err)
	} else if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("service error", "error", err, "path", r.URL.Path)
	}

	if WantsJSON(r) || !redirectable(appErr) {
		resp := MutationResponse{
			Success:  false,
			Message:  appErr.Message,
			Code:     appErr.Code,
			Redirect: target,
		}
		if details, ok := appErr.Details.(internal.ValidationErrors); ok {
			resp.Errors = details.Fields()
		}
		h.WriteJSON(w, appErr.StatusCode, resp)
		return
	}

	h.Redirect(w, r, target, Flash{Level: flashLevelFor(appErr), Message: appErr.GetDetailedMessage()})
}

func redirectable(appErr *internal.AppError) bool {
	return appErr.Type != internal.ErrorTypeNotFound && appErr.StatusCode < http.StatusInternalServerError
}

func flashLevelFor(appErr *internal.AppError) FlashLevel {
	switch appErr.Type {
	case internal.ErrorTypeConflict:
		return FlashWarning
	case internal.ErrorTypeForbidden:
		return FlashInfo
	default:
		return FlashError
	}
}

// Redirect sends a 303 to target, leaving flash for the next page.
func (h *BaseHandler) Redirect(w http.ResponseWriter, r *http.Request, target string, flash Flash) {
	if target == "" {
		target = "/"
	}
	if flash.Message != "" {
		SetFlash(w, flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func SetFlash(w http.ResponseWriter, flash Flash) {
	raw, err := json.Marshal(flash)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadFlash decodes the flash cookie, if any.
func ReadFlash(r *http.Request) (Flash, bool) {
	c, err := r.Cookie(FlashCookie)
	if err != nil {
		return Flash{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return Flash{}, false
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return Flash{}, false
	}
	return f, true
}
