package observability

import (
	"time"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Selection outcome labels.
const (
	OutcomeSelected    = "selected"
	OutcomeFallback    = "fallback"
	OutcomeUnavailable = "unavailable"
)

// Metrics holds all Prometheus metrics for the financing BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	selections      *prometheus.CounterVec
	remoteFailures  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "financing_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		selections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_selections_total",
				Help: "Product selections by outcome.",
			},
			[]string{"outcome"},
		),
		remoteFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_remote_calc_failures_total",
				Help: "Failed partner calculation calls by provider.",
			},
			[]string{"provider"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "financing_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrSelection increments the selection counter for an outcome.
func (m *Metrics) IncrSelection(outcome string) {
	m.selections.WithLabelValues(outcome).Inc()
}

// IncrRemoteFailure increments the failed-calculation counter.
func (m *Metrics) IncrRemoteFailure(provider string) {
	m.remoteFailures.WithLabelValues(provider).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetFinancingSnapshot returns a snapshot of financing metrics suitable
// for the GET /v1/metrics/financing endpoint.
func (m *Metrics) GetFinancingSnapshot() *domain.FinancingMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	selected := getCounterValue(m.selections, OutcomeSelected)
	fallback := getCounterValue(m.selections, OutcomeFallback)
	unavailable := getCounterValue(m.selections, OutcomeUnavailable)
	total := selected + fallback + unavailable

	cacheHits := getCounterValue(m.cacheHits, "catalog")
	cacheMisses := getCounterValue(m.cacheMisses, "catalog")

	// Provider labels are dynamic, so failures are summed across children.
	remoteFailures := sumCounterVec(m.remoteFailures)

	fallbackRate := float64(0)
	unavailableRate := float64(0)
	cacheHitRate := float64(0)

	if total > 0 {
		fallbackRate = fallback / total
		unavailableRate = unavailable / total
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.FinancingMetrics{
		TotalSelections:     int64(total),
		FallbackRate:        fallbackRate,
		UnavailableRate:     unavailableRate,
		RemoteFailures:      int64(remoteFailures),
		CatalogCacheHitRate: cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec sums every child of a CounterVec regardless of label.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
