// Package security writes an audit trail of privileged export operations:
// tgt-admin invocations, configuration record changes and rejected input.
package security

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/observability"
)

// Logger provides centralized security event logging
type Logger struct {
	metrics *observability.Metrics
}

// NewLogger creates a new security logger. Events are counted in metrics
// when it is non-nil.
func NewLogger(metrics *observability.Metrics) *Logger {
	return &Logger{metrics: metrics}
}

// severityMapping defines how a severity level maps to klog behavior
type severityMapping struct {
	verbosity klog.Level
	logFunc   func(args ...interface{})
}

// severityMap maps EventSeverity to klog verbosity and logging function
var severityMap = map[EventSeverity]severityMapping{
	SeverityInfo:     {verbosity: 2, logFunc: func(args ...interface{}) { klog.V(2).Info(args...) }},
	SeverityWarning:  {verbosity: 1, logFunc: klog.Warning},
	SeverityError:    {verbosity: 0, logFunc: klog.Error},
	SeverityCritical: {verbosity: 0, logFunc: klog.Error},
}

// LogEvent logs a security event with structured logging
func (l *Logger) LogEvent(event *SecurityEvent) {
	if l == nil {
		return
	}

	if l.metrics != nil {
		l.metrics.RecordSecurityEvent(string(event.Category), string(event.EventType), string(event.Severity))
	}

	mapping, ok := severityMap[event.Severity]
	if !ok {
		mapping = severityMap[SeverityInfo]
	}
	mapping.logFunc(formatLogMessage(event))

	// Critical events are also logged as JSON for easy parsing
	if event.Severity == SeverityCritical {
		if jsonBytes, err := json.Marshal(event); err == nil {
			klog.Errorf("CRITICAL_SECURITY_EVENT: %s", string(jsonBytes))
		}
	}
}

// formatLogMessage formats a security event as a structured log message
func formatLogMessage(event *SecurityEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[SECURITY] category=%s type=%s severity=%s outcome=%s msg=%q",
		event.Category, event.EventType, event.Severity, event.Outcome, event.Message)

	if event.VolumeID != "" {
		fmt.Fprintf(&b, " volume_id=%s", event.VolumeID)
	}
	if event.IQN != "" {
		fmt.Fprintf(&b, " iqn=%s", event.IQN)
	}
	if event.BackingStore != "" {
		fmt.Fprintf(&b, " backing_store=%s", event.BackingStore)
	}
	if event.RecordPath != "" {
		fmt.Fprintf(&b, " record_path=%s", event.RecordPath)
	}
	if event.Operation != "" {
		fmt.Fprintf(&b, " operation=%s", event.Operation)
	}
	if event.Duration > 0 {
		fmt.Fprintf(&b, " duration_ms=%d", event.Duration.Milliseconds())
	}
	if event.Error != "" {
		fmt.Fprintf(&b, " error=%q", event.Error)
	}

	// Sorted so identical events log identically
	keys := make([]string, 0, len(event.Details))
	for key := range event.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%q", key, event.Details[key])
	}

	fmt.Fprintf(&b, " timestamp=%s", event.Timestamp.Format("2006-01-02T15:04:05.000Z"))
	return b.String()
}

// OperationLogConfig defines the configuration for a logging operation
type OperationLogConfig struct {
	Operation   string
	Category    EventCategory
	SuccessType EventType
	FailureType EventType
	RequestType EventType
	SuccessSev  EventSeverity
	FailureSev  EventSeverity
	SuccessMsg  string
	FailureMsg  string
	RequestMsg  string
}

// operationConfigs defines the logging configuration for all operations
var operationConfigs = map[string]OperationLogConfig{
	"ExportCreate": {Operation: "CreateISERTarget", Category: CategoryExportOperation, SuccessType: EventExportCreateSuccess, FailureType: EventExportCreateFailure, RequestType: EventExportCreateRequest, SuccessSev: SeverityInfo, FailureSev: SeverityError, SuccessMsg: "Export created successfully", FailureMsg: "Export creation failed", RequestMsg: "Export creation requested"},
	"ExportRemove": {Operation: "RemoveISERTarget", Category: CategoryExportOperation, SuccessType: EventExportRemoveSuccess, FailureType: EventExportRemoveFailure, RequestType: EventExportRemoveRequest, SuccessSev: SeverityInfo, FailureSev: SeverityWarning, SuccessMsg: "Export removed successfully", FailureMsg: "Export removal failed", RequestMsg: "Export removal requested"},
}

// EventField is a functional option for configuring SecurityEvent fields
type EventField func(*SecurityEvent)

// WithExport sets export information
func WithExport(volumeID, iqn string) EventField {
	return func(e *SecurityEvent) {
		e.VolumeID = volumeID
		e.IQN = iqn
	}
}

// WithBackingStore sets the exported device path
func WithBackingStore(path string) EventField {
	return func(e *SecurityEvent) {
		e.BackingStore = path
	}
}

// WithDuration sets operation duration
func WithDuration(d time.Duration) EventField {
	return func(e *SecurityEvent) {
		e.Duration = d
	}
}

// WithError sets error information
func WithError(err error) EventField {
	return func(e *SecurityEvent) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// LogOperation logs an operation using the table-driven configuration
func (l *Logger) LogOperation(config OperationLogConfig, outcome EventOutcome, fields ...EventField) {
	var eventType EventType
	var severity EventSeverity
	var message string

	switch outcome {
	case OutcomeSuccess:
		eventType = config.SuccessType
		severity = config.SuccessSev
		message = config.SuccessMsg
	case OutcomeFailure:
		eventType = config.FailureType
		severity = config.FailureSev
		message = config.FailureMsg
	default:
		eventType = config.RequestType
		severity = SeverityInfo
		message = config.RequestMsg
	}

	event := NewSecurityEvent(eventType, config.Category, severity, message)
	event.Operation = config.Operation
	event.Outcome = outcome

	for _, field := range fields {
		field(event)
	}

	l.LogEvent(event)
}

// LogExportCreate logs export creation events
func (l *Logger) LogExportCreate(volumeID, iqn, backingStore string, outcome EventOutcome, err error, duration time.Duration) {
	l.LogOperation(operationConfigs["ExportCreate"], outcome,
		WithExport(volumeID, iqn),
		WithBackingStore(backingStore),
		WithDuration(duration),
		WithError(err))
}

// LogExportRemove logs export removal events
func (l *Logger) LogExportRemove(volumeID, iqn string, outcome EventOutcome, err error, duration time.Duration) {
	l.LogOperation(operationConfigs["ExportRemove"], outcome,
		WithExport(volumeID, iqn),
		WithDuration(duration),
		WithError(err))
}

// LogRecordChange logs a change to a tgtd configuration record
func (l *Logger) LogRecordChange(eventType EventType, volumeID, path string) {
	var message string
	switch eventType {
	case EventRecordWritten:
		message = "Configuration record written"
	case EventRecordRolledBack:
		message = "Configuration record rolled back after failed apply"
	case EventRecordSuperseded:
		message = "Superseded configuration record removed"
	case EventRecordDeleted:
		message = "Configuration record deleted"
	default:
		message = "Configuration record changed"
	}

	event := NewSecurityEvent(eventType, CategoryConfigChange, SeverityInfo, message).
		WithExport(volumeID, "").
		WithRecord(path).
		WithOutcome(OutcomeSuccess)
	l.LogEvent(event)
}

// LogSecurityViolation logs security violations
func (l *Logger) LogSecurityViolation(eventType EventType, message string, details map[string]string) {
	event := NewSecurityEvent(
		eventType,
		CategorySecurityViolation,
		SeverityCritical,
		message,
	).WithOutcome(OutcomeDenied)

	for key, value := range details {
		event.WithDetail(key, value)
	}

	l.LogEvent(event)
}

// LogValidationFailure logs a rejected parameter. Values that try to leave
// the volumes directory are reported as path traversal attempts.
func (l *Logger) LogValidationFailure(parameter, value, reason string) {
	eventType := EventInvalidParameter
	message := "Invalid parameter rejected"
	if isPathTraversal(value) {
		eventType = EventPathTraversalAttempt
		message = "Path traversal attempt rejected"
	}

	l.LogSecurityViolation(eventType, message, map[string]string{
		"parameter": parameter,
		"value":     value,
		"reason":    reason,
	})
}

func isPathTraversal(value string) bool {
	return strings.Contains(value, "..") || strings.ContainsAny(value, "/\\")
}
