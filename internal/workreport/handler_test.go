package workreport_test

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/testutil"
	"github.com/frahmantamala/electrotrack/internal/transport"
	"github.com/frahmantamala/electrotrack/internal/workflow"
	"github.com/frahmantamala/electrotrack/internal/workreport"
	workreportPostgres "github.com/frahmantamala/electrotrack/internal/workreport/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestWorkReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Work Report Suite")
}

type reportBody struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message"`
	Code     string                `json:"code"`
	Errors   map[string][]string   `json:"errors"`
	Redirect string                `json:"redirect"`
	Data     workreport.WorkReport `json:"data"`
}

var _ = Describe("Work Report Handler Integration", func() {
	var (
		db         *gorm.DB
		router     chi.Router
		actor      *auth.User
		admin      *auth.User
		supervisor *auth.User
		worker     *auth.User
		colleague  *auth.User
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		a, err := testutil.CreateUser(db, "admin", role.Admin, nil)
		Expect(err).NotTo(HaveOccurred())
		s, err := testutil.CreateUser(db, "sup", role.Supervisor, nil)
		Expect(err).NotTo(HaveOccurred())
		w, err := testutil.CreateUser(db, "wire", role.Electrician, &s.ID)
		Expect(err).NotTo(HaveOccurred())
		c, err := testutil.CreateUser(db, "store", role.Storekeeper, nil)
		Expect(err).NotTo(HaveOccurred())
		admin = &auth.User{ID: a.ID, Username: a.Username, Role: role.Admin}
		supervisor = &auth.User{ID: s.ID, Username: s.Username, Role: role.Supervisor}
		worker = &auth.User{ID: w.ID, Username: w.Username, Role: role.Electrician, SupervisorID: &s.ID}
		colleague = &auth.User{ID: c.ID, Username: c.Username, Role: role.Storekeeper}

		policy := auth.NewPolicy(slogger)
		service := workreport.NewService(
			workreportPostgres.NewWorkReportRepository(db),
			workreportPostgres.NewStatusStore(db),
			workflow.NewEngine(policy, nil, slogger),
			policy,
			nil,
			slogger,
		)
		handler := workreport.NewHandler(transport.NewBaseHandler(slogger), service)

		actor = worker
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), actor)))
			})
		})
		router.Get("/work-reports", handler.List)
		router.Post("/work-reports", handler.Submit)
		router.Get("/work-reports/{id}", handler.Get)
		router.Post("/work-reports/{id}/approve", handler.Approve)
		router.Post("/work-reports/{id}/reject", handler.Reject)
	})

	AfterEach(func() {
		Expect(testutil.Close(db)).To(Succeed())
	})

	submitForm := func(values url.Values, ajax bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/work-reports", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if ajax {
			req.Header.Set("X-Requested-With", "XMLHttpRequest")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	validForm := func(task string) url.Values {
		return url.Values{
			"task_name":    {task},
			"description":  {"Replaced breaker in panel B"},
			"hours_worked": {"3.456"},
		}
	}

	decode := func(rec *httptest.ResponseRecorder) reportBody {
		var body reportBody
		Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
		return body
	}

	flashOf := func(rec *httptest.ResponseRecorder) transport.Flash {
		for _, c := range rec.Result().Cookies() {
			if c.Name == transport.FlashCookie {
				raw, err := base64.RawURLEncoding.DecodeString(c.Value)
				Expect(err).NotTo(HaveOccurred())
				var f transport.Flash
				Expect(json.Unmarshal(raw, &f)).To(Succeed())
				return f
			}
		}
		Fail("no flash cookie set")
		return transport.Flash{}
	}

	Describe("POST /work-reports", func() {
		It("answers an XMLHttpRequest with JSON", func() {
			rec := submitForm(validForm("Panel B"), true)

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
			body := decode(rec)
			Expect(body.Success).To(BeTrue())
			Expect(body.Message).To(Equal("Work report submitted successfully!"))
			Expect(body.Data.ID).NotTo(BeZero())
			Expect(body.Data.Status).To(Equal(workflow.StatusInProgress))
			Expect(body.Data.HoursWorked).To(Equal(3.46))
			Expect(body.Data.UserID).To(Equal(worker.ID))
		})

		It("redirects a form post with a success flash", func() {
			rec := submitForm(validForm("Panel B"), false)

			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(rec.Header().Get("Location")).To(Equal(transport.ViewWorkReports))
			Expect(flashOf(rec).Level).To(Equal(transport.FlashSuccess))
		})

		It("returns field errors as JSON to scripts", func() {
			form := validForm("")
			form.Set("hours_worked", "1000")

			rec := submitForm(form, true)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			body := decode(rec)
			Expect(body.Success).To(BeFalse())
			Expect(body.Errors).To(HaveKey("task_name"))
		})

		It("sends a browser back to the form on validation failure", func() {
			rec := submitForm(validForm(""), false)

			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			Expect(rec.Header().Get("Location")).To(Equal(transport.ViewWorkReportAdd))
			f := flashOf(rec)
			Expect(f.Level).To(Equal(transport.FlashError))
			Expect(f.Message).To(ContainSubstring("task_name"))
		})

		It("accepts a JSON body and a chosen status", func() {
			req := httptest.NewRequest(http.MethodPost, "/work-reports",
				strings.NewReader(`{"task_name":"Cabling","description":"Level 2","hours_worked":4,"status":"completed"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(decode(rec).Data.Status).To(Equal(workflow.StatusCompleted))
		})

		It("reports non-numeric JSON hours as a field error", func() {
			req := httptest.NewRequest(http.MethodPost, "/work-reports",
				strings.NewReader(`{"task_name":"Cabling","description":"Level 2","hours_worked":"lots"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec).Errors).To(HaveKey("hours_worked"))
		})

		It("does not let a submitter pre-approve a report", func() {
			form := validForm("Sneaky")
			form.Set("status", "approved")

			rec := submitForm(form, true)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("reading and deciding", func() {
		var reportID int64

		BeforeEach(func() {
			rec := submitForm(validForm("Panel B"), true)
			Expect(rec.Code).To(Equal(http.StatusCreated))
			reportID = decode(rec).Data.ID
		})

		post := func(path string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set("X-Requested-With", "XMLHttpRequest")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec
		}

		get := func(path string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec
		}

		It("returns the stored report field for field", func() {
			rec := get("/work-reports/" + strconv.FormatInt(reportID, 10))

			Expect(rec.Code).To(Equal(http.StatusOK))
			var got workreport.WorkReport
			Expect(json.NewDecoder(rec.Body).Decode(&got)).To(Succeed())
			Expect(got.TaskName).To(Equal("Panel B"))
			Expect(got.Description).To(Equal("Replaced breaker in panel B"))
			Expect(got.HoursWorked).To(Equal(3.46))
			Expect(got.Status).To(Equal(workflow.StatusInProgress))
			Expect(got.Username).To(Equal("wire"))
		})

		It("keeps the last of approve and reject", func() {
			actor = supervisor
			Expect(post("/work-reports/" + strconv.FormatInt(reportID, 10) + "/approve").Code).To(Equal(http.StatusOK))

			actor = admin
			rec := post("/work-reports/" + strconv.FormatInt(reportID, 10) + "/reject")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec).Data.Status).To(Equal(workflow.StatusRejected))
		})

		It("forbids a colleague from deciding", func() {
			actor = colleague
			rec := post("/work-reports/" + strconv.FormatInt(reportID, 10) + "/approve")

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(decode(rec).Code).To(Equal("ROLE_FORBIDDEN"))
		})

		It("returns 404 for unknown reports", func() {
			actor = admin
			Expect(get("/work-reports/9999").Code).To(Equal(http.StatusNotFound))
		})

		It("answers 404 to a form decision on an unknown report", func() {
			actor = admin
			req := httptest.NewRequest(http.MethodPost, "/work-reports/9999/approve", strings.NewReader(""))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Header().Get("Location")).To(BeEmpty())
		})

		It("filters the list by role", func() {
			actor = colleague
			Expect(submitForm(validForm("Stock count"), true).Code).To(Equal(http.StatusCreated))

			listed := func(u *auth.User) []string {
				actor = u
				rec := get("/work-reports")
				Expect(rec.Code).To(Equal(http.StatusOK))
				var body struct {
					Reports []workreport.WorkReport `json:"reports"`
				}
				Expect(json.NewDecoder(rec.Body).Decode(&body)).To(Succeed())
				names := []string{}
				for _, r := range body.Reports {
					names = append(names, r.Username)
				}
				return names
			}

			Expect(listed(worker)).To(ConsistOf("wire"))
			Expect(listed(colleague)).To(ConsistOf("store"))
			Expect(listed(supervisor)).To(ConsistOf("wire"))
			Expect(listed(admin)).To(ConsistOf("wire", "store"))
		})
	})
})

var _ = Describe("SubmitDTO", func() {
	It("defaults the status to in_progress", func() {
		dto := workreport.SubmitDTO{TaskName: "x", Description: "y", HoursWorked: "1"}
		dto.Normalize()
		Expect(dto.Status).To(Equal(string(workreport.InitialStatus)))
	})

	DescribeTable("rejects bad hours",
		func(raw string) {
			dto := workreport.SubmitDTO{TaskName: "x", Description: "y", HoursWorked: transport.LenientNumber(raw)}
			dto.Normalize()
			_, err := dto.Validate()
			Expect(err).To(HaveOccurred())
		},
		Entry("missing", ""),
		Entry("text", "lots"),
		Entry("negative", "-0.5"),
		Entry("too many", "1000"),
	)

	It("rounds hours to two decimals", func() {
		dto := workreport.SubmitDTO{TaskName: "x", Description: "y", HoursWorked: "2.005"}
		dto.Normalize()
		hours, err := dto.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(hours).To(BeNumerically("~", 2.0, 0.011))
	})
})
