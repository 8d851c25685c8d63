package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/electrotrack/api"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Document Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("is valid OpenAPI 3", func() {
		doc, err := api.Load(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("electrotrack API"))
	})

	DescribeTable("describes every mounted route",
		func(path, method string) {
			doc, err := api.Load(context.Background())
			Expect(err).NotTo(HaveOccurred())

			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), method+" "+path)
		},
		Entry(nil, "/auth/login", http.MethodPost),
		Entry(nil, "/auth/refresh", http.MethodPost),
		Entry(nil, "/auth/logout", http.MethodPost),
		Entry(nil, "/dashboard", http.MethodGet),
		Entry(nil, "/users/me", http.MethodGet),
		Entry(nil, "/users", http.MethodGet),
		Entry(nil, "/users", http.MethodPost),
		Entry(nil, "/users/{id}", http.MethodPut),
		Entry(nil, "/users/{id}", http.MethodDelete),
		Entry(nil, "/attendance/clock-in", http.MethodPost),
		Entry(nil, "/attendance/clock-out", http.MethodPost),
		Entry(nil, "/attendance/manage", http.MethodGet),
		Entry(nil, "/attendance/{id}/hours", http.MethodPost),
		Entry(nil, "/attendance/{id}/approve", http.MethodPost),
		Entry(nil, "/work-reports", http.MethodPost),
		Entry(nil, "/work-reports/{id}/reject", http.MethodPost),
		Entry(nil, "/material-requests", http.MethodPost),
		Entry(nil, "/material-requests/{id}/photo", http.MethodGet),
		Entry(nil, "/material-requests/{id}/approve", http.MethodPost),
		Entry(nil, "/health", http.MethodGet),
	)

	It("is served as YAML", func() {
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.Bytes()).To(Equal(api.Document()))
	})
})
