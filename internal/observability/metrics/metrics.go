// Package metrics exposes Prometheus instrumentation for the storefront edge.
//
// A nil *Recorder is valid and records nothing, so components can be built
// without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/mydrops/storefront-edge/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
	ResultLimited = "rate_limited"
)

const namespace = "storefront_edge"

// Recorder holds the service's collectors.
type Recorder struct {
	gatherer prometheus.Gatherer

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	guardDecisions  *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	logins          *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, including Go runtime
// and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: g,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		backendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Outbound storefront backend calls, by operation and result class.",
		}, []string{"operation", "result"}),

		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Outbound storefront backend latency by operation.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard outcomes by zone.",
		}, []string{"zone", "decision"}),

		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_verifications_total",
			Help:      "Session token verifications by session kind and outcome.",
		}, []string{"session", "outcome"}),

		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by session kind and result.",
		}, []string{"session", "result"}),
	}
}

// Handler serves the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// HTTPRequest records one served request. route should be the mux pattern,
// never the raw path, to keep label cardinality bounded.
func (r *Recorder) HTTPRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// BackendCall records one outbound call. A nil err counts as success.
func (r *Recorder) BackendCall(operation string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = obserrors.Classify(err)
	}
	r.backendCalls.WithLabelValues(operation, result).Inc()
	r.backendDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// GuardDecision records a route guard outcome ("allow" or "redirect").
func (r *Recorder) GuardDecision(zone, decision string) {
	if r == nil {
		return
	}
	r.guardDecisions.WithLabelValues(zone, decision).Inc()
}

// Verification records a verifier outcome ("valid" or a failure kind).
func (r *Recorder) Verification(session, outcome string) {
	if r == nil {
		return
	}
	r.verifications.WithLabelValues(session, outcome).Inc()
}

// Login records a login attempt result.
func (r *Recorder) Login(session, result string) {
	if r == nil {
		return
	}
	r.logins.WithLabelValues(session, result).Inc()
}
