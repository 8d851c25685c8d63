package attendance_test

import (
	"math"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/attendance"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComputeTotalHours", func() {
	base := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)

	DescribeTable("rounds the elapsed hours to two decimals",
		func(elapsed time.Duration, want float64) {
			Expect(attendance.ComputeTotalHours(base, base.Add(elapsed))).To(Equal(want))
		},
		Entry("whole hours", 8*time.Hour, 8.0),
		Entry("half hour", 4*time.Hour+30*time.Minute, 4.5),
		Entry("one third rounds down", 20*time.Minute, 0.33),
		Entry("two thirds rounds up", 40*time.Minute, 0.67),
		Entry("seconds count", 3599*time.Second, 1.0),
		Entry("one minute", time.Minute, 0.02),
		Entry("overnight", 13*time.Hour+15*time.Minute, 13.25),
	)

	It("matches round(seconds/3600, 2) across a range of durations", func() {
		for s := int64(1); s < 2*86400; s += 977 {
			got := attendance.ComputeTotalHours(base, base.Add(time.Duration(s)*time.Second))
			want := math.Round(float64(s)/3600*100) / 100
			Expect(got).To(BeNumerically("~", want, 1e-9), "seconds=%d", s)
		}
	})
})

var _ = Describe("ParseGeolocation", func() {
	It("keeps a valid pair", func() {
		geo := attendance.ParseGeolocation(" -6.175392 ", "106.827153")
		Expect(geo).NotTo(BeNil())
		Expect(geo.Latitude).To(Equal(-6.175392))
		Expect(geo.Longitude).To(Equal(106.827153))
	})

	DescribeTable("drops invalid input instead of failing",
		func(lat, lon string) {
			Expect(attendance.ParseGeolocation(lat, lon)).To(BeNil())
		},
		Entry("both empty", "", ""),
		Entry("latitude missing", "", "106.8"),
		Entry("longitude garbage", "-6.1", "east"),
		Entry("latitude out of range", "91", "10"),
		Entry("longitude out of range", "10", "-180.5"),
		Entry("not a number", "NaN", "10"),
		Entry("infinite", "10", "Inf"),
	)
})

var _ = Describe("MapLink", func() {
	It("is empty without a full pair", func() {
		lat := 1.5
		Expect(attendance.MapLink(&lat, nil)).To(BeEmpty())
	})

	It("links to the coordinates", func() {
		lat, lon := -6.2, 106.8
		Expect(attendance.MapLink(&lat, &lon)).To(Equal("https://www.google.com/maps?q=-6.2,106.8"))
	})
})

var _ = Describe("DTOs", func() {
	It("reads coordinates from a form", func() {
		form := url.Values{"latitude": {"10.5"}, "longitude": {"20.25"}}
		req := httptest.NewRequest("POST", "/attendance/clock-in", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		geo := attendance.ClockDTOFromRequest(req).Geo()

		Expect(geo).To(Equal(&attendance.Geo{Latitude: 10.5, Longitude: 20.25}))
	})

	It("accepts JSON numbers and strings", func() {
		req := httptest.NewRequest("POST", "/attendance/clock-in", strings.NewReader(`{"latitude": 10.5, "longitude": "20.25"}`))
		req.Header.Set("Content-Type", "application/json")

		geo := attendance.ClockDTOFromRequest(req).Geo()

		Expect(geo).To(Equal(&attendance.Geo{Latitude: 10.5, Longitude: 20.25}))
	})

	It("ignores a malformed body", func() {
		req := httptest.NewRequest("POST", "/attendance/clock-in", strings.NewReader(`{"latitude":`))
		req.Header.Set("Content-Type", "application/json")

		Expect(attendance.ClockDTOFromRequest(req).Geo()).To(BeNil())
	})

	DescribeTable("reads manual hours from JSON numbers and strings",
		func(body string, want float64) {
			req := httptest.NewRequest("POST", "/attendance/7/hours", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			dto, err := attendance.SetHoursDTOFromRequest(req)
			Expect(err).NotTo(HaveOccurred())
			hours, err := dto.Hours()
			Expect(err).NotTo(HaveOccurred())
			Expect(hours).To(Equal(want))
		},
		Entry("number", `{"total_hours": 7.5}`, 7.5),
		Entry("string", `{"total_hours": " 6.25 "}`, 6.25),
	)

	It("reports null JSON hours as missing", func() {
		req := httptest.NewRequest("POST", "/attendance/7/hours", strings.NewReader(`{"total_hours": null}`))
		req.Header.Set("Content-Type", "application/json")

		dto, err := attendance.SetHoursDTOFromRequest(req)
		Expect(err).NotTo(HaveOccurred())
		_, err = dto.Hours()
		appErr, isApp := internal.IsAppError(err)
		Expect(isApp).To(BeTrue())
		Expect(appErr.Details).To(BeAssignableToTypeOf(internal.ValidationErrors{}))
		Expect(appErr.Details.(internal.ValidationErrors).Fields()).To(HaveKey("total_hours"))
	})

	DescribeTable("validates manual hours",
		func(raw string, want float64, ok bool) {
			hours, err := attendance.SetHoursDTO{TotalHours: raw}.Hours()
			if !ok {
				appErr, isApp := internal.IsAppError(err)
				Expect(isApp).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(hours).To(Equal(want))
		},
		Entry("plain", "7.5", 7.5, true),
		Entry("rounded", "7.456", 7.46, true),
		Entry("zero", "0", 0.0, true),
		Entry("empty", "", 0.0, false),
		Entry("text", "seven", 0.0, false),
		Entry("negative", "-1", 0.0, false),
		Entry("more than a day", "24.01", 0.0, false),
	)
})
