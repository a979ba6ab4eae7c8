// Package metrics exposes Prometheus collectors for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application collectors around one registry.
type Metrics struct {
	registry     *prometheus.Registry
	Logins       *prometheus.CounterVec
	Denials      *prometheus.CounterVec
	Trainings    *prometheus.CounterVec
	Measurements *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diabetecam",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diabetecam",
			Name:      "page_denials_total",
			Help:      "Requests refused by the page gate.",
		}, []string{"page", "reason"}),
		Trainings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diabetecam",
			Name:      "model_trainings_total",
			Help:      "Model training runs by model and outcome.",
		}, []string{"model", "outcome"}),
		Measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diabetecam",
			Name:      "measurements_recorded_total",
			Help:      "Measurements stored, by risk level.",
		}, []string{"risk"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "diabetecam",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.Logins, m.Denials, m.Trainings, m.Measurements, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware observes request latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// The helpers below are nil-safe so callers can run without metrics.

func (m *Metrics) Login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Denied(page, reason string) {
	if m != nil {
		m.Denials.WithLabelValues(page, reason).Inc()
	}
}

func (m *Metrics) Trained(model, outcome string) {
	if m != nil {
		m.Trainings.WithLabelValues(model, outcome).Inc()
	}
}

func (m *Metrics) Measured(risk string) {
	if m != nil {
		m.Measurements.WithLabelValues(risk).Inc()
	}
}
