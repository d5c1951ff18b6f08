package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for ingestion and indicator computation.
// All methods are safe on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec // labels: status
	RequestDuration prometheus.Histogram
	RetriesTotal    prometheus.Counter
	ChunksTotal     *prometheus.CounterVec // labels: outcome=ok|dropped
	PointsIngested  prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec // labels: reason
	LastRefresh     prometheus.Gauge
	SeriesLength    prometheus.Gauge
	SeriesGaps      prometheus.Gauge

	IndicatorComputeDur *prometheus.HistogramVec // labels: indicator
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spot_esios_requests_total",
			Help: "ESIOS API requests by HTTP status (transport_error when no response)",
		}, []string{"status"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spot_esios_request_duration_seconds",
			Help:    "ESIOS API request latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spot_fetch_retries_total",
			Help: "Chunk request attempts beyond the first",
		}),
		ChunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spot_fetch_chunks_total",
			Help: "Chunks processed by outcome",
		}, []string{"outcome"}),
		PointsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spot_fetch_points_total",
			Help: "Price points kept after geo filtering",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spot_fetch_records_skipped_total",
			Help: "Upstream values skipped by reason",
		}, []string{"reason"}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spot_last_refresh_timestamp_seconds",
			Help: "Unix time of the last completed ingestion run",
		}),
		SeriesLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spot_series_points",
			Help: "Observations in the current canonical series",
		}),
		SeriesGaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spot_series_missing_hours",
			Help: "Missing local hours in the current canonical series",
		}),
		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spot_indicator_compute_seconds",
			Help:    "Indicator computation latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"indicator"}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RetriesTotal,
		m.ChunksTotal,
		m.PointsIngested,
		m.RecordsSkipped,
		m.LastRefresh,
		m.SeriesLength,
		m.SeriesGaps,
		m.IndicatorComputeDur,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry (for tests and extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(status).Inc()
	m.RequestDuration.Observe(d.Seconds())
}

func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *Metrics) ObserveChunk(dropped bool, points int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if dropped {
		outcome = "dropped"
	}
	m.ChunksTotal.WithLabelValues(outcome).Inc()
	m.PointsIngested.Add(float64(points))
}

func (m *Metrics) AddSkipped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsSkipped.WithLabelValues(reason).Add(float64(n))
}

// ObserveSeries records the state of a freshly built canonical series.
func (m *Metrics) ObserveSeries(points, missing int, at time.Time) {
	if m == nil {
		return
	}
	m.SeriesLength.Set(float64(points))
	m.SeriesGaps.Set(float64(missing))
	m.LastRefresh.Set(float64(at.Unix()))
}

// TimeIndicator returns a func that records the elapsed time for name when called.
func (m *Metrics) TimeIndicator(name string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.IndicatorComputeDur.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
