package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics. It satisfies the recorder
// interfaces of the backtest engine, the optimizer and the Monte Carlo
// simulator.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal      *prometheus.CounterVec
	backtestDuration    prometheus.Histogram
	optimizerCandidates *prometheus.CounterVec
	monteCarloRounds    prometheus.Counter
	divisionGuards      *prometheus.CounterVec
	sourceFetches       *prometheus.CounterVec
	jobsActive          *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossover_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crossover_backtest_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
	r.optimizerCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossover_optimizer_candidates_total",
			Help: "Optimizer candidate windows by outcome",
		},
		[]string{"outcome"},
	)
	r.monteCarloRounds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crossover_montecarlo_rounds_total",
			Help: "Total number of simulated Monte Carlo rounds",
		},
	)
	r.divisionGuards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossover_division_guards_total",
			Help: "Zero-denominator substitutions by site",
		},
		[]string{"site"},
	)
	r.sourceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossover_source_fetches_total",
			Help: "Price history fetches by result",
		},
		[]string{"result"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crossover_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.optimizerCandidates)
	reg.MustRegister(r.monteCarloRounds)
	reg.MustRegister(r.divisionGuards)
	reg.MustRegister(r.sourceFetches)
	reg.MustRegister(r.jobsActive)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordCandidate records one optimizer candidate outcome.
func (r *Registry) RecordCandidate(outcome string) {
	r.optimizerCandidates.WithLabelValues(outcome).Inc()
}

// RecordMonteCarloRounds adds simulated rounds.
func (r *Registry) RecordMonteCarloRounds(n int) {
	r.monteCarloRounds.Add(float64(n))
}

// RecordDivisionGuard records a zero-denominator substitution.
func (r *Registry) RecordDivisionGuard(site string) {
	r.divisionGuards.WithLabelValues(site).Inc()
}

// RecordSourceFetch records a price history fetch: "upstream", "cache",
// "stale" or "failed".
func (r *Registry) RecordSourceFetch(result string) {
	r.sourceFetches.WithLabelValues(result).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
