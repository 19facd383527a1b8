package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the CRM backend.
type Metrics struct {
	// Registry owns the collectors and backs the /metrics endpoint.
	Registry *prometheus.Registry

	httpDuration      *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	reportDuration    *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	secondaryFailures *prometheus.CounterVec
	jobsProcessed     *prometheus.CounterVec
}

// NewMetrics registers every collector in a private registry, so repeated
// construction in tests never collides.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		reportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_report_duration_seconds",
				Help:    "Time to assemble a report.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_hits_total",
				Help: "Report cache hits.",
			},
			[]string{"report"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_misses_total",
				Help: "Report cache misses.",
			},
			[]string{"report"},
		),
		secondaryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_secondary_failures_total",
				Help: "Side effects that failed without failing the request.",
			},
			[]string{"effect"},
		),
		jobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_jobs_processed_total",
				Help: "Background jobs by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveReport(report string, d time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(report string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(report).Inc()
}

func (m *Metrics) CacheMiss(report string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(report).Inc()
}

// SecondaryFailure counts a failed side effect such as a lead cascade or PDF render.
func (m *Metrics) SecondaryFailure(effect string) {
	if m == nil {
		return
	}
	m.secondaryFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) JobProcessed(taskType string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobsProcessed.WithLabelValues(taskType, outcome).Inc()
}
