// Package metrics holds the Prometheus collectors shared by extraction, matching and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "soto_lp"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	extractions      *prometheus.CounterVec
	oracleFailures   *prometheus.CounterVec
	distanceLookups  *prometheus.CounterVec
	distanceDuration prometheus.Histogram
	candidates       prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Job text extractions by outcome source (oracle, fallback, cache).",
		}, []string{"source"}),
		oracleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Failed text-completion calls by stage.",
		}, []string{"stage"}),
		distanceLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distance_lookups_total",
			Help:      "Distance oracle lookups by result.",
		}, []string{"result"}),
		distanceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "distance_lookup_duration_seconds",
			Help:      "Distance oracle lookup latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		candidates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_candidates_total",
			Help:      "Match candidates produced.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) Extraction(source string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(source).Inc()
}

func (m *Metrics) OracleFailure(stage string) {
	if m == nil {
		return
	}
	m.oracleFailures.WithLabelValues(stage).Inc()
}

// DistanceLookup records the outcome and latency of one distance oracle call.
func (m *Metrics) DistanceLookup(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.distanceLookups.WithLabelValues(result).Inc()
	m.distanceDuration.Observe(took.Seconds())
}

func (m *Metrics) Candidates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.candidates.Add(float64(n))
}

func (m *Metrics) HTTPRequest(route, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(took.Seconds())
}
