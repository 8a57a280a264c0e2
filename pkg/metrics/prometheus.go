package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tradeyodha"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches     *prometheus.CounterVec
	fetchTime   *prometheus.HistogramVec
	degraded    *prometheus.CounterVec
	cache       *prometheus.CounterVec
	insights    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	published   *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetches_total",
				Help:      "Upstream snapshot calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		fetchTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Duration of upstream snapshot calls",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"operation"},
		),
		degraded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_tickers_total",
				Help:      "Tickers dropped to empty results after an upstream failure",
			},
			[]string{"operation"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Signal cache lookups by result",
			},
			[]string{"result"},
		),
		insights: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "insights_total",
				Help:      "Generated insights by source",
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		published: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_published_total",
				Help:      "Signal events handed to the publisher",
			},
			[]string{"kind", "ok"},
		),
	}
}

func (r *Recorder) RecordFetch(op, outcome string, seconds float64) {
	r.fetches.WithLabelValues(op, outcome).Inc()
	r.fetchTime.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordDegraded(op string, n int) {
	if n > 0 {
		r.degraded.WithLabelValues(op).Add(float64(n))
	}
}

func (r *Recorder) RecordCache(result string) {
	r.cache.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordInsight(source string) {
	r.insights.WithLabelValues(source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordPublish(kind string, ok bool) {
	r.published.WithLabelValues(kind, strconv.FormatBool(ok)).Inc()
}
