package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/fits/internal/batch"
	"github.com/JonMunkholm/fits/internal/fits"
)

// codeOK labels successful computations.
const codeOK = "OK"

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	computations *prometheus.CounterVec
	computeTime  prometheus.Histogram
	batchRows    *prometheus.CounterVec
	batches      *prometheus.CounterVec
	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
}

// NewMetrics registers every collector. limiter, when non-nil, is exported
// as gauges.
func NewMetrics(limiter *batch.Limiter) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		computations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fits",
			Name:      "computations_total",
			Help:      "Fit computations by result code (OK or an error code).",
		}, []string{"code"}),
		computeTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fits",
			Name:      "compute_duration_seconds",
			Help:      "Time spent in one fit computation.",
			Buckets:   []float64{.000005, .00001, .000025, .00005, .0001, .00025, .0005, .001, .005},
		}),
		batchRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fits",
			Name:      "batch_rows_total",
			Help:      "Batch rows by outcome.",
		}, []string{"outcome"}),
		batches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fits",
			Name:      "batches_total",
			Help:      "Batch jobs by outcome: completed, rejected or failed.",
		}, []string{"outcome"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fits",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		requestTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fits",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	if limiter != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "fits",
			Name:      "batches_active",
			Help:      "Batch jobs currently running.",
		}, func() float64 { return float64(limiter.ActiveCount()) })
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "fits",
			Name:      "batch_slots",
			Help:      "Configured number of concurrent batch jobs.",
		}, func() float64 { return float64(limiter.MaxConcurrent()) })
	}

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeCompute(err error, d time.Duration) {
	code := codeOK
	if err != nil {
		code = fits.MapError(err).Code
	}
	m.computations.WithLabelValues(code).Inc()
	m.computeTime.Observe(d.Seconds())
}

func (m *Metrics) observeBatch(s *batch.Summary) {
	m.batches.WithLabelValues("completed").Inc()
	m.batchRows.WithLabelValues("succeeded").Add(float64(s.Succeeded))
	m.batchRows.WithLabelValues("failed").Add(float64(s.Failed))
	// Parse failures never reach the engine.
	for _, row := range s.Rows {
		if row.Code == "BAT002" {
			m.computations.WithLabelValues(row.Code).Inc()
		}
	}
}

func (m *Metrics) observeBatchOutcome(outcome string) {
	m.batches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(route).Observe(d.Seconds())
}

// meteredEngine records every computation in the metrics.
type meteredEngine struct {
	engine  *fits.Engine
	metrics *Metrics
}

func (c meteredEngine) Compute(req fits.Request) (*fits.Result, error) {
	start := time.Now()
	res, err := c.engine.Compute(req)
	c.metrics.observeCompute(err, time.Since(start))
	return res, err
}
