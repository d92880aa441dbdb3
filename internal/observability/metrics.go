package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

const namespace = "jobfit"

// Metrics collects pipeline and HTTP measurements in Prometheus form.
// It satisfies pipeline.Metrics.
type Metrics struct {
	stageDuration   *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	retries         *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	fitScore        prometheus.Histogram
	requestDuration *prometheus.SummaryVec
	requests        *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"stage"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_cache_lookups_total",
				Help:      "Analysis cache lookups by result",
			},
			[]string{"result"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_retries_total",
				Help:      "Retried completion calls by stage",
			},
			[]string{"stage"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Finished analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		fitScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_score",
				Help:      "Distribution of overall fit scores",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		requestDuration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
	}
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage types.Stage, d time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// IncCache counts an analysis cache lookup
func (m *Metrics) IncCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// IncRetry counts a retried completion call
func (m *Metrics) IncRetry(stage types.Stage) {
	m.retries.WithLabelValues(string(stage)).Inc()
}

// IncOutcome counts a finished run
func (m *Metrics) IncOutcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

// ObserveScore records an overall fit score
func (m *Metrics) ObserveScore(score int) {
	m.fitScore.Observe(float64(score))
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
	m.requests.WithLabelValues(method, path, code).Inc()
}
