package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifelink"

// Metrics holds the process collectors. A nil *Metrics is valid and records
// nothing, so packages can be used without a registry in tests and CLI runs.
type Metrics struct {
	registry *prometheus.Registry

	matchSearches  *prometheus.CounterVec
	matchResults   prometheus.Histogram
	transitions    *prometheus.CounterVec
	alerts         *prometheus.CounterVec
	mirrorWrites   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDurationMS *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		matchSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_searches_total",
			Help:      "Donor match searches by result.",
		}, []string{"result"}),
		matchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_results",
			Help:      "Number of donors returned per successful match search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Emergency request status transitions by target status and result.",
		}, []string{"to", "result"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		mirrorWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_writes_total",
			Help:      "Workbook mirror writes by operation and result.",
		}, []string{"op", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDurationMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.matchSearches,
		m.matchResults,
		m.transitions,
		m.alerts,
		m.mirrorWrites,
		m.httpRequests,
		m.httpDurationMS,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveMatch(results int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.matchSearches.WithLabelValues("error").Inc()
		return
	}
	m.matchSearches.WithLabelValues("ok").Inc()
	m.matchResults.Observe(float64(results))
}

func (m *Metrics) ObserveTransition(to string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to, result(err)).Inc()
}

func (m *Metrics) ObserveAlert(channel, outcome string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) ObserveMirrorWrite(op string, err error) {
	if m == nil {
		return
	}
	m.mirrorWrites.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.httpDurationMS.WithLabelValues(method).Observe(float64(elapsed) / float64(time.Millisecond))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
