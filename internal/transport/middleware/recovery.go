package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/frahmantamala/electrotrack/pkg/logger"
)

// RecoveryMiddleware turns a panic into a 500 without leaking the panic
// value to the client.
func RecoveryMiddleware(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				lg.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"url", r.URL.String(),
					"trace_id", logger.TraceID(r.Context()),
					"stack", string(debug.Stack()))

				base.WriteJSON(w, http.StatusInternalServerError, transport.MutationResponse{
					Success: false,
					Message: "Internal server error",
					Code:    internal.ErrCodeInternal,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
