// Package metrics exposes dashboard and job-source activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "opsdash"

// Collector holds the process metrics. It satisfies jobs.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	dashboardRequests *prometheus.CounterVec
	fetchErrors       *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	jobsFetched       *prometheus.CounterVec
	cacheRefreshes    prometheus.Counter
	lastEarnings      *prometheus.GaugeVec
}

// NewCollector registers the metrics with a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	return NewCollectorWith(reg, reg)
}

// NewCollectorWith registers the metrics on reg and serves them from g.
func NewCollectorWith(reg prometheus.Registerer, g prometheus.Gatherer) *Collector {
	c := &Collector{
		gatherer: g,
		dashboardRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard views built, by range and view mode.",
		}, []string{"range", "view"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_errors_total",
			Help:      "Job source fetches that failed and were degraded to no jobs.",
		}, []string{"source"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent fetching jobs from a source.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		jobsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_jobs_fetched_total",
			Help:      "Jobs returned by a source.",
		}, []string{"source"}),
		cacheRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_refreshes_total",
			Help:      "Scheduled job cache invalidations.",
		}),
		lastEarnings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "period_earnings",
			Help:      "Earnings of the most recently built period, by range.",
		}, []string{"range"}),
	}

	reg.MustRegister(
		c.dashboardRequests,
		c.fetchErrors,
		c.fetchDuration,
		c.jobsFetched,
		c.cacheRefreshes,
		c.lastEarnings,
	)
	return c
}

// ObserveFetch records one job-source fetch.
func (c *Collector) ObserveFetch(source string, elapsed time.Duration, jobs int, err error) {
	c.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		c.fetchErrors.WithLabelValues(source).Inc()
		return
	}
	c.jobsFetched.WithLabelValues(source).Add(float64(jobs))
}

// ObserveDashboard records a built dashboard view.
func (c *Collector) ObserveDashboard(rangeName, view string, earnings float64) {
	c.dashboardRequests.WithLabelValues(rangeName, view).Inc()
	c.lastEarnings.WithLabelValues(rangeName).Set(earnings)
}

// ObserveRefresh records a scheduled cache refresh.
func (c *Collector) ObserveRefresh() {
	c.cacheRefreshes.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
