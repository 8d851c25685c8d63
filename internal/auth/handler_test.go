package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == transport.SessionCookie {
			return c
		}
	}
	return nil
}

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler *Handler
		service *Service
		base    *transport.BaseHandler
	)

	ginkgo.BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base = transport.NewBaseHandler(logger)
		tokenGen := NewJWTTokenGenerator("access", "refresh", time.Hour, 24*time.Hour)
		service = NewService(newMockUserRepository(), tokenGen, logger)
		handler = NewHandler(base, service, false)
	})

	postForm := func(values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	ginkgo.Describe("Login", func() {
		ginkgo.It("redirects a browser to the landing page with a session", func() {
			rec := postForm(url.Values{"username": {"wire"}, "password": {"correct_password"}})

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal(transport.ViewEmployeeDashboard))
			cookie := sessionCookie(rec)
			gomega.Expect(cookie).NotTo(gomega.BeNil())
			gomega.Expect(cookie.HttpOnly).To(gomega.BeTrue())
			_, err := service.ValidateAccessToken(cookie.Value)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("sends a failed browser login back to the login page", func() {
			rec := postForm(url.Values{"username": {"wire"}, "password": {"nope"}})

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal(transport.ViewLogin))
			gomega.Expect(sessionCookie(rec)).To(gomega.BeNil())
		})

		ginkgo.It("answers JSON callers with tokens", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
				strings.NewReader(`{"username":"boss","password":"correct_password"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var body struct {
				Success  bool        `json:"success"`
				Message  string      `json:"message"`
				Redirect string      `json:"redirect"`
				Data     LoginResult `json:"data"`
			}
			gomega.Expect(json.NewDecoder(rec.Body).Decode(&body)).To(gomega.Succeed())
			gomega.Expect(body.Success).To(gomega.BeTrue())
			gomega.Expect(body.Message).To(gomega.Equal("Welcome back, boss!"))
			gomega.Expect(body.Redirect).To(gomega.Equal(transport.ViewDashboard))
			gomega.Expect(body.Data.Tokens.RefreshToken).NotTo(gomega.BeEmpty())
		})

		ginkgo.It("returns 401 to JSON callers with bad credentials", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
				strings.NewReader(`{"username":"boss","password":"wrong"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("expires the session cookie", func() {
			rec := httptest.NewRecorder()
			handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			cookie := sessionCookie(rec)
			gomega.Expect(cookie).NotTo(gomega.BeNil())
			gomega.Expect(cookie.MaxAge).To(gomega.BeNumerically("<", 0))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			seen *User
			next http.Handler
		)

		ginkgo.BeforeEach(func() {
			seen = nil
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
		})

		ginkgo.It("loads the actor from a bearer token", func() {
			token, err := NewJWTTokenGenerator("access", "refresh", time.Hour, time.Hour).
				GenerateAccessToken(&User{ID: 2, Username: "boss", Role: role.Supervisor})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).NotTo(gomega.BeNil())
			gomega.Expect(seen.Username).To(gomega.Equal("boss"))
		})

		ginkgo.It("accepts the session cookie", func() {
			login := postForm(url.Values{"username": {"wire"}, "password": {"correct_password"}})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
			req.AddCookie(sessionCookie(login))
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen.ID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("redirects browsers without a session to login", func() {
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal(transport.ViewLogin))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("rejects tokens of deleted users", func() {
			token, err := NewJWTTokenGenerator("access", "refresh", time.Hour, time.Hour).
				GenerateAccessToken(&User{ID: 42, Username: "gone", Role: role.Electrician})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("RequireRoles", func() {
		var rbac *RBACAuthorization

		ginkgo.BeforeEach(func() {
			rbac = NewRBACAuthorization(NewPermissionChecker(), base.Logger)
		})

		serve := func(u *User, wantJSON bool) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			if wantJSON {
				req.Header.Set("Accept", "application/json")
			}
			if u != nil {
				req = req.WithContext(ContextWithUser(req.Context(), u))
			}
			rec := httptest.NewRecorder()
			rbac.RequireManagement()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)
			return rec
		}

		ginkgo.It("passes management through", func() {
			gomega.Expect(serve(&User{ID: 2, Role: role.Supervisor}, true).Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("forbids employees", func() {
			rec := serve(&User{ID: 3, Role: role.Electrician}, true)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

			rec = serve(&User{ID: 3, Role: role.Electrician}, false)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(rec.Header().Get("Location")).To(gomega.Equal(transport.ViewEmployeeDashboard))
		})

		ginkgo.It("requires a user", func() {
			gomega.Expect(serve(nil, true).Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
