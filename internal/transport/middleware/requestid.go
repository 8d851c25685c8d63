package middleware

import (
	"net/http"

	"github.com/frahmantamala/electrotrack/pkg/logger"

	"github.com/google/uuid"
)

// TraceHeader carries the trace id in both directions.
const TraceHeader = "X-Trace-ID"

// RequestID reuses the caller's trace id or mints one, and attaches it to the
// request logger and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.NewString()
		}

		ctx := logger.WithTraceID(r.Context(), traceID)
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
