package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	usersRegistered  prometheus.Counter
	logins           *prometheus.CounterVec
	gateRejections   prometheus.Counter
	contactMutations *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactbook_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "contactbook_users_registered_total",
			Help: "Total number of registered users",
		}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_logins_total",
			Help: "Total number of login attempts, labeled by result",
		}, []string{"result"}),
		gateRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "contactbook_auth_gate_rejections_total",
			Help: "Total number of requests rejected by the auth gate",
		}),
		contactMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_contact_mutations_total",
			Help: "Total number of persisted contact mutations, labeled by operation",
		}, []string{"op"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.usersRegistered.Inc()
}

func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordGateRejection() {
	if m == nil {
		return
	}
	m.gateRejections.Inc()
}

func (m *Metrics) RecordContactMutation(op string) {
	if m == nil {
		return
	}
	m.contactMutations.WithLabelValues(op).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records count and latency of every request, labeled by the
// ServeMux pattern that matched it.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
