package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	// HTTP
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Store
	storeOpsTotal    *prometheus.CounterVec
	storeOpDuration  *prometheus.HistogramVec
	storeBreakerOpen prometheus.Gauge

	// Cache
	cacheLookupsTotal *prometheus.CounterVec

	// Domain
	invitesTotal *prometheus.CounterVec
	authTotal    *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "endpoint", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		httpRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: labels,
		}),

		storeOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "store_operations_total",
			Help:        "Total number of document store operations",
			ConstLabels: labels,
		}, []string{"operation", "collection", "status"}),
		storeOpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "store_operation_duration_seconds",
			Help:        "Document store latency in seconds",
			ConstLabels: labels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation", "collection"}),
		storeBreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name:        "store_circuit_breaker_open",
			Help:        "1 while the store circuit breaker is open",
			ConstLabels: labels,
		}),

		cacheLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "cache_lookups_total",
			Help:        "Public profile cache lookups",
			ConstLabels: labels,
		}, []string{"result"}),

		invitesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "invites_total",
			Help:        "Invite code operations",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		authTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "auth_attempts_total",
			Help:        "Authentication attempts",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
	}
}

// RecordHTTPRequest records a finished request.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) IncInFlight() {
	if m != nil {
		m.httpRequestsInFlight.Inc()
	}
}

func (m *Metrics) DecInFlight() {
	if m != nil {
		m.httpRequestsInFlight.Dec()
	}
}

// RecordStoreOp records one store call. status is "ok" or "error".
func (m *Metrics) RecordStoreOp(operation, collection string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeOpsTotal.WithLabelValues(operation, collection, status).Inc()
	m.storeOpDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.storeBreakerOpen.Set(1)
	} else {
		m.storeBreakerOpen.Set(0)
	}
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookupsTotal.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) RecordInvite(operation string, ok bool) {
	if m != nil {
		m.invitesTotal.WithLabelValues(operation, outcome(ok)).Inc()
	}
}

func (m *Metrics) RecordAuth(operation string, ok bool) {
	if m != nil {
		m.authTotal.WithLabelValues(operation, outcome(ok)).Inc()
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
