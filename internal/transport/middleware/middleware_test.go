package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/frahmantamala/electrotrack/internal/transport/middleware"
	"github.com/frahmantamala/electrotrack/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("RequestID", func() {
	It("mints a trace id and exposes it", func() {
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logger.TraceID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).NotTo(BeEmpty())
		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal(seen))
	})

	It("keeps the caller's trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "abc-123")
		rec := httptest.NewRecorder()

		middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("abc-123"))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers 500 JSON without the panic value", func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		h := middleware.RecoveryMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("secret detail")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("secret detail"))
		var body transport.MutationResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Success).To(BeFalse())
		Expect(string(body.Code)).To(Equal("INTERNAL_ERROR"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf *bytes.Buffer
		lg  *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		lg = slog.New(slog.NewJSONHandler(buf, nil))
	})

	It("masks passwords in form bodies and leaves the body readable", func() {
		var got string
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.PostFormValue("password")
			w.WriteHeader(http.StatusSeeOther)
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("username=wire&password=hunter22"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(got).To(Equal("hunter22"))
		Expect(buf.String()).NotTo(ContainSubstring("hunter22"))
		Expect(buf.String()).To(ContainSubstring("wire"))
		Expect(buf.String()).To(ContainSubstring(`"status_code":303`))
	})

	It("masks tokens in JSON responses", func() {
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"eyJ.secret","user":{"username":"wire"}}`))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(buf.String()).NotTo(ContainSubstring("eyJ.secret"))
		Expect(buf.String()).To(ContainSubstring("wire"))
	})

	It("does not buffer multipart uploads", func() {
		var size int
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			size = len(b)
		}))
		payload := strings.Repeat("x", 10000)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=abc")

		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(size).To(Equal(len(payload)))
		Expect(buf.String()).To(ContainSubstring("[MULTIPART]"))
		Expect(buf.String()).NotTo(ContainSubstring(payload[:100]))
	})
})

var _ = Describe("NewCORS", func() {
	It("allows a configured origin with credentials", func() {
		h := middleware.NewCORS([]string{"https://ops.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Origin", "https://ops.example.com")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://ops.example.com"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
	})

	It("ignores other origins", func() {
		h := middleware.NewCORS([]string{"https://ops.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("is disabled without origins", func() {
		h := middleware.NewCORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Origin", "https://ops.example.com")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})
