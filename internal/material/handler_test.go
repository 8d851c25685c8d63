package material_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/material"
	materialPostgres "github.com/frahmantamala/electrotrack/internal/material/postgres"
	"github.com/frahmantamala/electrotrack/internal/storage"
	"github.com/frahmantamala/electrotrack/internal/testutil"
	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Material Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
		photos *storage.Memory
		actor  *auth.User
		admin  *auth.User
		worker *auth.User
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		a, err := testutil.CreateUser(db, "admin", role.Admin, nil)
		Expect(err).NotTo(HaveOccurred())
		w, err := testutil.CreateUser(db, "wire", role.Electrician, nil)
		Expect(err).NotTo(HaveOccurred())
		admin = &auth.User{ID: a.ID, Username: a.Username, Role: role.Admin}
		worker = &auth.User{ID: w.ID, Username: w.Username, Role: role.Electrician}

		photos = storage.NewMemory()
		policy := auth.NewPolicy(slogger)
		service := material.NewService(
			materialPostgres.NewMaterialRepository(db),
			materialPostgres.NewStatusStore(db),
			workflow.NewEngine(policy, nil, slogger),
			policy,
			auth.NewPermissionChecker(),
			photos,
			nil,
			slogger,
		)
		handler := material.NewHandler(transport.NewBaseHandler(slogger), service, 1<<16)

		actor = worker
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), actor)))
			})
		})
		router.Get("/material-requests", handler.List)
		router.Post("/material-requests", handler.Submit)
		router.Get("/material-requests/{id}", handler.Get)
		router.Get("/material-requests/{id}/photo", handler.Photo)
		router.Post("/material-requests/{id}/approve", handler.Approve)
		router.Post("/material-requests/{id}/reject", handler.Reject)
	})

	AfterEach(func() {
		Expect(testutil.Close(db)).To(Succeed())
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	multipartRequest := func(fields url.Values, photo []byte) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for key, values := range fields {
			for _, v := range values {
				Expect(mw.WriteField(key, v)).To(Succeed())
			}
		}
		if photo != nil {
			fw, err := mw.CreateFormFile("photo", "site.png")
			Expect(err).NotTo(HaveOccurred())
			_, err = fw.Write(photo)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/material-requests", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		return req
	}

	type submitBody struct {
		Success bool               `json:"success"`
		Code    string             `json:"code"`
		Message string             `json:"message"`
		Data    []material.Request `json:"data"`
	}

	It("creates one row per line from repeated form keys", func() {
		form := url.Values{
			"item_name": {"Wire", "Bulb"},
			"quantity":  {"10", "5"},
			"unit":      {"meter"},
		}
		req := httptest.NewRequest(http.MethodPost, "/material-requests", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := serve(req)

		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal(transport.ViewEmployeeDashboard))

		var count int64
		Expect(db.Table("material_requests").Where("unit = ? AND status = ?", "meter", "pending").Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(2)))
	})

	It("stores a multipart photo and serves it back", func() {
		rec := serve(multipartRequest(url.Values{
			"item_name": {"Wire", "", "Bulb"},
			"quantity":  {"10", "4", "5"},
		}, pngHeader))

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body submitBody
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Success).To(BeTrue())
		Expect(body.Data).To(HaveLen(2))
		Expect(body.Data[0].HasPhoto).To(BeTrue())
		Expect(photos.Keys()).To(HaveLen(1))

		actor = admin
		photo := serve(httptest.NewRequest(http.MethodGet, "/material-requests/"+strconv.FormatInt(body.Data[1].ID, 10)+"/photo", nil))
		Expect(photo.Code).To(Equal(http.StatusOK))
		Expect(photo.Header().Get("Content-Type")).To(Equal("image/png"))
		Expect(photo.Body.Bytes()).To(Equal(pngHeader))
	})

	It("rejects oversized photos", func() {
		big := append([]byte{}, pngHeader...)
		big = append(big, make([]byte, 1<<16)...)

		rec := serve(multipartRequest(url.Values{"item_name": {"Wire"}, "quantity": {"1"}}, big))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(photos.Keys()).To(BeEmpty())
	})

	It("explains an empty submission", func() {
		rec := serve(multipartRequest(url.Values{"item_name": {""}, "quantity": {""}}, nil))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		var body submitBody
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Code).To(Equal("NO_MATERIAL_ITEMS"))
		Expect(body.Message).To(Equal("Please enter at least one material item."))
	})

	It("sends management back to the request list", func() {
		actor = admin
		form := url.Values{"item_name": {"Wire"}, "quantity": {"1"}}
		req := httptest.NewRequest(http.MethodPost, "/material-requests", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := serve(req)

		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal(transport.ViewMaterialRequests))
	})

	It("keeps the usable rows of a JSON batch with bad quantities", func() {
		req := httptest.NewRequest(http.MethodPost, "/material-requests",
			strings.NewReader(`{"items":[{"item_name":"Wire","quantity":"10"},{"item_name":"Bulb","quantity":""},{"item_name":"Tape","quantity":"abc"}],"unit":"meter"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := serve(req)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body submitBody
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Data).To(HaveLen(1))
		Expect(body.Data[0].ItemName).To(Equal("Wire"))
		Expect(body.Data[0].Quantity).To(Equal(10))
		Expect(*body.Data[0].Unit).To(Equal("meter"))
	})

	It("answers 404 to a form decision on an unknown request", func() {
		actor = admin
		req := httptest.NewRequest(http.MethodPost, "/material-requests/9999/approve", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := serve(req)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Header().Get("Location")).To(BeEmpty())
	})

	It("accepts JSON items and lets an admin decide", func() {
		req := httptest.NewRequest(http.MethodPost, "/material-requests",
			strings.NewReader(`{"items":[{"item_name":"Wire","quantity":"3"},{"item_name":"Fuse","quantity":2}],"unit":"pcs"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(req)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var body submitBody
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		Expect(body.Data).To(HaveLen(2))

		actor = admin
		approve := httptest.NewRequest(http.MethodPost, "/material-requests/"+strconv.FormatInt(body.Data[0].ID, 10)+"/approve", nil)
		approve.Header.Set("X-Requested-With", "XMLHttpRequest")
		Expect(serve(approve).Code).To(Equal(http.StatusOK))

		get := serve(httptest.NewRequest(http.MethodGet, "/material-requests/"+strconv.FormatInt(body.Data[0].ID, 10), nil))
		Expect(get.Code).To(Equal(http.StatusOK))
		var got material.Request
		Expect(json.NewDecoder(get.Body).Decode(&got)).To(Succeed())
		Expect(got.Status).To(Equal(workflow.StatusApproved))
		Expect(got.SubmitterUsername).To(Equal("wire"))
	})
})
