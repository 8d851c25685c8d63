package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/electrotrack/internal/core/events"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "electrotrack"

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Transitions         *prometheus.CounterVec
	Shifts              *prometheus.CounterVec
	ShiftHours          prometheus.Histogram
	Submissions         *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg gets a private registry,
// which keeps tests independent of the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Approve and reject decisions by ledger and resulting status.",
		}, []string{"ledger", "status"}),
		Shifts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_shifts_total",
			Help:      "Clock-in and clock-out events.",
		}, []string{"event"}),
		ShiftHours: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attendance_shift_hours",
			Help:      "Length of closed shifts in hours.",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 12, 16},
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Stored work reports and material request rows.",
		}, []string{"ledger"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.Transitions,
		m.Shifts,
		m.ShiftHours,
		m.Submissions,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records count and latency per chi route pattern so that ids
// in the path do not explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Subscribe feeds the domain counters from the event bus.
func (m *Metrics) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.AllEvents, m.observe)
}

func (m *Metrics) observe(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StatusChangedEvent:
		m.Transitions.WithLabelValues(e.Ledger, e.To).Inc()
	case *events.ShiftEvent:
		m.Shifts.WithLabelValues(e.EventType()).Inc()
		if e.TotalHours != nil {
			m.ShiftHours.Observe(*e.TotalHours)
		}
	case *events.SubmissionEvent:
		m.Submissions.WithLabelValues(ledgerOf(e.EventType())).Add(float64(e.Count))
	}
	return nil
}

func ledgerOf(eventType string) string {
	switch eventType {
	case events.EventTypeMaterialBatch:
		return "material_request"
	case events.EventTypeReportSubmitted:
		return "work_report"
	default:
		return eventType
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
