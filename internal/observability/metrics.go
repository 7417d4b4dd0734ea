package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const metricsNamespace = "vidroute"

// Metrics holds the collectors shared by the probe, the pipeline and the
// report forwarder. A nil *Metrics is valid and records nothing.
type Metrics struct {
	classifications  *prometheus.CounterVec
	probes           *prometheus.CounterVec
	probeDuration    *prometheus.HistogramVec
	executions       *prometheus.CounterVec
	attempts         *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	executeDuration  *prometheus.HistogramVec
	reportsForwarded *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "classifications_total",
			Help:      "URLs classified by source type and chosen player family.",
		}, []string{"type", "player"}),

		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_total",
			Help:      "Direct-file probes by outcome.",
		}, []string{"outcome"}), // outcome: playable, unplayable, not_found, forbidden, http_error, timeout, network, cancelled

		probeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_duration_seconds",
			Help:      "Time taken by direct-file probes.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_executions_total",
			Help:      "Pipeline executions by result.",
		}, []string{"result"}), // result: success, failed, cancelled

		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_attempts_total",
			Help:      "Adapter bind attempts by player family and outcome.",
		}, []string{"player", "outcome"}),

		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_fallbacks_total",
			Help:      "Player family switches during a pipeline execution.",
		}, []string{"from", "to"}),

		executeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_execute_duration_seconds",
			Help:      "Time from execute to terminal result.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"result"}),

		reportsForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "error_reports_total",
			Help:      "Error reports by delivery outcome.",
		}, []string{"outcome"}), // outcome: sent, failed, dropped, rate_limited
	}
}

// RecordClassification counts one classifier decision.
func (m *Metrics) RecordClassification(sourceType, player string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(normalizeLabel(sourceType), normalizeLabel(player)).Inc()
}

// RecordProbe counts one probe outcome and its duration.
func (m *Metrics) RecordProbe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.probes.WithLabelValues(outcome).Inc()
	m.probeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordAttempt counts one adapter bind attempt.
func (m *Metrics) RecordAttempt(player string, success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.attempts.WithLabelValues(normalizeLabel(player), outcome).Inc()
}

// RecordFallback counts one player family switch.
func (m *Metrics) RecordFallback(from, to string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// RecordExecution counts one finished pipeline execution.
func (m *Metrics) RecordExecution(result string, d time.Duration) {
	if m == nil {
		return
	}
	result = normalizeLabel(result)
	m.executions.WithLabelValues(result).Inc()
	m.executeDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordReport counts one error report delivery outcome.
func (m *Metrics) RecordReport(outcome string) {
	if m == nil {
		return
	}
	m.reportsForwarded.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ProbeCount returns the number of probes recorded with outcome.
func (m *Metrics) ProbeCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.probes.WithLabelValues(normalizeLabel(outcome)))
}

// AttemptCount returns the number of bind attempts recorded for player.
func (m *Metrics) AttemptCount(player string, success bool) float64 {
	if m == nil {
		return 0
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	return counterValue(m.attempts.WithLabelValues(normalizeLabel(player), outcome))
}

// ExecutionCount returns the number of executions recorded with result.
func (m *Metrics) ExecutionCount(result string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.executions.WithLabelValues(normalizeLabel(result)))
}

// FallbackCount returns the number of family switches recorded from -> to.
func (m *Metrics) FallbackCount(from, to string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.fallbacks.WithLabelValues(normalizeLabel(from), normalizeLabel(to)))
}

// ReportCount returns the number of error reports recorded with outcome.
func (m *Metrics) ReportCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.reportsForwarded.WithLabelValues(normalizeLabel(outcome)))
}

func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

func normalizeLabel(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return v
}
