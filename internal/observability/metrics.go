// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	CandlesProcessed prometheus.Counter
	TradesSimulated  prometheus.Counter
	LastMaxDrawdown  prometheus.Gauge
	LastTotalReturn  prometheus.Gauge

	// Optimizer metrics
	GridPointsEvaluated prometheus.Counter
	BestScore           prometheus.Gauge

	// Feed metrics
	CandlesFetched *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance with all metrics registered on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "breakout_lab"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		// Simulation metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CandlesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "candles_processed_total",
			Help:      "Total number of candles fed to simulations",
		}),
		TradesSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_total",
			Help:      "Total number of positions opened by simulations",
		}),
		LastMaxDrawdown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "last_max_drawdown",
			Help:      "Max drawdown of the last completed run",
		}),
		LastTotalReturn: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "last_total_return",
			Help:      "Total return of the last completed run",
		}),

		// Optimizer metrics
		GridPointsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "grid_points_evaluated_total",
			Help:      "Total number of parameter sets evaluated",
		}),
		BestScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "best_score",
			Help:      "Best objective score of the last search",
		}),

		// Feed metrics
		CandlesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "candles_fetched_total",
			Help:      "Total number of candles loaded by source",
		}, []string{"source"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_duration_seconds",
			Help:      "Candle load duration in seconds by source",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"source"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler returns an HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// DefaultMetrics is the global metrics instance on the default registry.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records a finished simulation run.
func (m *Metrics) RecordRun(status string, durationSeconds float64, candles, trades int) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(durationSeconds)
	m.CandlesProcessed.Add(float64(candles))
	m.TradesSimulated.Add(float64(trades))
}

// RecordRunStats updates the last-run gauges.
func (m *Metrics) RecordRunStats(maxDrawdown, totalReturn float64, unixSeconds int64) {
	m.LastMaxDrawdown.Set(maxDrawdown)
	m.LastTotalReturn.Set(totalReturn)
	m.LastSuccessfulRun.Set(float64(unixSeconds))
}

// RecordFetch records a candle load from a source.
func (m *Metrics) RecordFetch(source string, candles int, seconds float64) {
	m.CandlesFetched.WithLabelValues(source).Add(float64(candles))
	m.FetchDuration.WithLabelValues(source).Observe(seconds)
}

// RecordGridPoint records one evaluated parameter set.
func (m *Metrics) RecordGridPoint() {
	m.GridPointsEvaluated.Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
