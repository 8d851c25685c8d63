package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS allows the configured origins to call the API with cookies. An
// empty list disables cross-origin access.
func NewCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", TraceHeader},
		ExposedHeaders: []string{TraceHeader},
		// a wildcard origin never receives cookies
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	})

	return c.Handler
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
