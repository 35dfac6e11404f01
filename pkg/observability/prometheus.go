// Package observability provides Prometheus metrics for iSER target administration.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// namespace is the Prometheus metric namespace prefix for all metrics.
	namespace = "iser_target_admin"
)

// Metrics holds all Prometheus metrics for target administration.
type Metrics struct {
	registry *prometheus.Registry

	// Export operation metrics
	exportOpsTotal    *prometheus.CounterVec
	exportOpsDuration *prometheus.HistogramVec

	// tgt-admin invocation metrics
	toolInvocationsTotal *prometheus.CounterVec

	// Record rollback and cleanup metrics
	recordRollbacksTotal prometheus.Counter
	staleRecordsRemoved  prometheus.Counter

	// Audit events
	securityEventsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
// Uses a custom registry so several helpers can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		exportOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "export_operations_total",
				Help:      "Total number of export operations by type and status",
			},
			[]string{"operation", "status"},
		),

		exportOpsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_operation_duration_seconds",
				Help:      "Duration of export operations in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		toolInvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_invocations_total",
				Help:      "Total number of tgt-admin invocations by subcommand and status",
			},
			[]string{"subcommand", "status"},
		),

		recordRollbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_rollbacks_total",
			Help:      "Total number of configuration records removed after a failed apply",
		}),

		staleRecordsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_records_removed_total",
			Help:      "Total number of superseded configuration records removed after a rename",
		}),

		securityEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "security_events_total",
				Help:      "Total number of audit events by category, type and severity",
			},
			[]string{"category", "event_type", "severity"},
		),
	}

	reg.MustRegister(
		m.exportOpsTotal,
		m.exportOpsDuration,
		m.toolInvocationsTotal,
		m.recordRollbacksTotal,
		m.staleRecordsRemoved,
		m.securityEventsTotal,
	)

	return m
}

// Gatherer exposes the private registry for exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in text exposition format to path, for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordExportOp records an export operation with timing.
// operation should be one of: create, remove, show.
func (m *Metrics) RecordExportOp(operation string, err error, duration time.Duration) {
	m.exportOpsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	m.exportOpsDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordToolInvocation records a tgt-admin invocation.
// subcommand should be one of: update, delete, show.
func (m *Metrics) RecordToolInvocation(subcommand string, err error) {
	m.toolInvocationsTotal.WithLabelValues(subcommand, statusLabel(err)).Inc()
}

// RecordRollback records that a configuration record was removed after a failed apply.
func (m *Metrics) RecordRollback() {
	m.recordRollbacksTotal.Inc()
}

// RecordSupersededRecordRemoved records removal of the old record after a rename.
func (m *Metrics) RecordSupersededRecordRemoved() {
	m.staleRecordsRemoved.Inc()
}

// RecordSecurityEvent records an audit event.
func (m *Metrics) RecordSecurityEvent(category, eventType, severity string) {
	m.securityEventsTotal.WithLabelValues(category, eventType, severity).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
