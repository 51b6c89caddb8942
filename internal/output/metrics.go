/*
PURPOSE:
  Prometheus metrics for a run: retries, run duration and per-view timings,
  written as a node_exporter textfile.

REQUIREMENTS:
  Implementation-discovered:
  - The process is short-lived; there is nothing to scrape. A textfile lets
    self-hosted runners ship results through the textfile collector.
  - Metric names follow model.Metrics so the report, CSV and metrics agree.

ARCHITECTURE INTEGRATION:
  - Fed by: internal/engine (RetryConfigFor, Pipeline)

ERROR HANDLING:
  - WriteTextfile wraps I/O errors. A nil *Metrics is a no-op.

IMPLEMENTATION RULES:
  - Private registry; never the global default one.

USAGE:
  m := output.NewMetrics()
  m.ObserveRun(res, time.Since(start))
  m.WriteTextfile(cfg.MetricsFile)
*/

package output

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/daryltucker/wpt-reporter/internal/model"
)

// Metrics collects run measurements for the node_exporter textfile collector.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	retryAttempts *prometheus.CounterVec
	runDuration   prometheus.Gauge
	viewTiming    *prometheus.GaugeVec
	viewBytes     *prometheus.GaugeVec
	viewRequests  *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		retryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wpt_retry_attempts_total",
			Help: "Failed WebPageTest calls, by operation.",
		}, []string{"operation"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wpt_run_duration_seconds",
			Help: "Wall time from submitting the test to receiving the result.",
		}),
		viewTiming: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wpt_view_metric",
			Help: "WebPageTest view metric (milliseconds, speed_index is unitless).",
		}, []string{"url", "aggregation", "view", "metric"}),
		viewBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wpt_view_bytes_in",
			Help: "Bytes downloaded by a view.",
		}, []string{"url", "aggregation", "view"}),
		viewRequests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wpt_view_requests",
			Help: "Requests made by a view.",
		}, []string{"url", "aggregation", "view"}),
	}
	m.registry.MustRegister(m.retryAttempts, m.runDuration, m.viewTiming, m.viewBytes, m.viewRequests)
	return m
}

// RetryAttempt counts a failed call of operation.
func (m *Metrics) RetryAttempt(operation string) {
	if m == nil {
		return
	}
	m.retryAttempts.WithLabelValues(operation).Inc()
}

// ObserveRun records the result of a completed run that took d.
func (m *Metrics) ObserveRun(r *model.RunResult, d time.Duration) {
	if m == nil || r == nil {
		return
	}
	m.runDuration.Set(d.Seconds())

	for _, agg := range model.Aggregations {
		for _, view := range model.Views {
			v := model.ViewOf(r, agg, view)
			if v == nil {
				continue
			}
			for _, metric := range model.Metrics {
				if val := metric.Value(v); val != nil {
					m.viewTiming.WithLabelValues(r.TestURL, agg.Key, view.Key, metric.Key).Set(*val)
				}
			}
			if len(v.Requests) > 0 {
				m.viewBytes.WithLabelValues(r.TestURL, agg.Key, view.Key).Set(float64(v.BytesIn()))
				m.viewRequests.WithLabelValues(r.TestURL, agg.Key, view.Key).Set(float64(len(v.Requests)))
			}
		}
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
