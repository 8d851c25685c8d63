package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/electrotrack/internal/attendance"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/dashboard"
	"github.com/frahmantamala/electrotrack/internal/material"
	"github.com/frahmantamala/electrotrack/internal/metrics"
	"github.com/frahmantamala/electrotrack/internal/transport/middleware"
	"github.com/frahmantamala/electrotrack/internal/transport/swagger"
	"github.com/frahmantamala/electrotrack/internal/user"
	"github.com/frahmantamala/electrotrack/internal/workreport"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups the HTTP handlers of every module. Nil handlers leave
// their routes unmounted.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Attendance *attendance.Handler
	WorkReport *workreport.Handler
	Material   *material.Handler
	Dashboard  *dashboard.Handler
}

type Options struct {
	Logger         *slog.Logger
	RBAC           *auth.RBACAuthorization
	Health         *HealthHandler
	Metrics        *metrics.Metrics
	MetricsPath    string
	AllowedOrigins []string
	// OpenAPI serves the API description at /openapi.yml.
	OpenAPI http.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	// Apply global middleware
	router.Use(middleware.NewCORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, opts.Metrics.Handler())
	}

	if opts.OpenAPI != nil {
		router.Method(http.MethodGet, "/openapi.yml", opts.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI servers
	router.Route("/api/v1", func(r chi.Router) {
		if opts.Health != nil {
			r.Get("/health", opts.Health.healthCheckHandler)
			r.Get("/ping", opts.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Protected routes that require a session
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Dashboard != nil {
				pr.Get("/dashboard", h.Dashboard.Get)
			}

			if h.User != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Get("/me", h.User.GetCurrentUser)

					ur.Group(func(mr chi.Router) {
						mr.Use(opts.RBAC.RequireManagement())
						mr.Get("/", h.User.ListUsers)
					})

					ur.Group(func(ar chi.Router) {
						ar.Use(opts.RBAC.RequireAdmin())
						ar.Post("/", h.User.CreateUser)
						ar.Get("/{id}", h.User.GetUser)
						ar.Put("/{id}", h.User.UpdateUser)
						ar.Delete("/{id}", h.User.DeleteUser)
					})
				})
			}

			if h.Attendance != nil {
				pr.Route("/attendance", func(ar chi.Router) {
					ar.Get("/", h.Attendance.ListMine)
					// clocking is role-gated by the service
					ar.Post("/clock-in", h.Attendance.ClockIn)
					ar.Post("/clock-out", h.Attendance.ClockOut)

					ar.Group(func(mr chi.Router) {
						mr.Use(opts.RBAC.RequireManagement())
						mr.Get("/manage", h.Attendance.ListForManagement)
					})

					ar.Get("/{id}", h.Attendance.Get)
					ar.Post("/{id}/hours", h.Attendance.SetHours)
					ar.Post("/{id}/approve", h.Attendance.Approve)
					ar.Post("/{id}/reject", h.Attendance.Reject)
				})
			}

			if h.WorkReport != nil {
				pr.Route("/work-reports", func(wr chi.Router) {
					wr.Get("/", h.WorkReport.List)
					wr.Post("/", h.WorkReport.Submit)
					wr.Get("/{id}", h.WorkReport.Get)
					wr.Post("/{id}/approve", h.WorkReport.Approve)
					wr.Post("/{id}/reject", h.WorkReport.Reject)
				})
			}

			if h.Material != nil {
				pr.Route("/material-requests", func(mr chi.Router) {
					mr.Get("/", h.Material.List)
					mr.Post("/", h.Material.Submit)
					mr.Get("/{id}", h.Material.Get)
					mr.Get("/{id}/photo", h.Material.Photo)
					mr.Post("/{id}/approve", h.Material.Approve)
					mr.Post("/{id}/reject", h.Material.Reject)
				})
			}
		})
	})
}
