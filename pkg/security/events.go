package security

import "time"

// EventCategory represents the category of a security event
type EventCategory string

const (
	// CategoryExportOperation represents export lifecycle operations
	CategoryExportOperation EventCategory = "export_operation"

	// CategoryConfigChange represents changes to tgtd configuration records
	CategoryConfigChange EventCategory = "config_change"

	// CategorySecurityViolation represents potential security violations
	CategorySecurityViolation EventCategory = "security_violation"
)

// EventSeverity represents the severity level of a security event
type EventSeverity string

const (
	// SeverityInfo represents informational events
	SeverityInfo EventSeverity = "info"

	// SeverityWarning represents warning events
	SeverityWarning EventSeverity = "warning"

	// SeverityError represents error events
	SeverityError EventSeverity = "error"

	// SeverityCritical represents critical security events
	SeverityCritical EventSeverity = "critical"
)

// EventOutcome represents the outcome of a security event
type EventOutcome string

const (
	// OutcomeSuccess indicates the operation succeeded
	OutcomeSuccess EventOutcome = "success"

	// OutcomeFailure indicates the operation failed
	OutcomeFailure EventOutcome = "failure"

	// OutcomeDenied indicates the operation was denied
	OutcomeDenied EventOutcome = "denied"

	// OutcomeUnknown indicates the outcome is unknown
	OutcomeUnknown EventOutcome = "unknown"
)

// EventType represents specific types of security events
type EventType string

const (
	// Export operation events
	EventExportCreateRequest EventType = "export_create_request"
	EventExportCreateSuccess EventType = "export_create_success"
	EventExportCreateFailure EventType = "export_create_failure"
	EventExportRemoveRequest EventType = "export_remove_request"
	EventExportRemoveSuccess EventType = "export_remove_success"
	EventExportRemoveFailure EventType = "export_remove_failure"

	// Configuration record events
	EventRecordWritten    EventType = "record_written"
	EventRecordRolledBack EventType = "record_rolled_back"
	EventRecordSuperseded EventType = "record_superseded"
	EventRecordDeleted    EventType = "record_deleted"

	// Security violation events
	EventValidationFailure    EventType = "validation_failure"
	EventInvalidParameter     EventType = "invalid_parameter"
	EventPathTraversalAttempt EventType = "path_traversal_attempt"
)

// SecurityEvent represents a security-relevant event in the system
type SecurityEvent struct {
	// Core event fields
	Timestamp time.Time     `json:"timestamp"`
	EventType EventType     `json:"event_type"`
	Category  EventCategory `json:"category"`
	Severity  EventSeverity `json:"severity"`
	Outcome   EventOutcome  `json:"outcome"`
	Message   string        `json:"message"`

	// Resource fields
	VolumeID     string `json:"volume_id,omitempty"`
	IQN          string `json:"iqn,omitempty"`
	BackingStore string `json:"backing_store,omitempty"`
	RecordPath   string `json:"record_path,omitempty"`

	// Operation details
	Operation string            `json:"operation,omitempty"`
	Duration  time.Duration     `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewSecurityEvent creates a new security event with timestamp
func NewSecurityEvent(eventType EventType, category EventCategory, severity EventSeverity, message string) *SecurityEvent {
	return &SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Category:  category,
		Severity:  severity,
		Message:   message,
		Details:   make(map[string]string),
	}
}

// WithOutcome sets the outcome for the event
func (e *SecurityEvent) WithOutcome(outcome EventOutcome) *SecurityEvent {
	e.Outcome = outcome
	return e
}

// WithExport sets export information for the event
func (e *SecurityEvent) WithExport(volumeID, iqn string) *SecurityEvent {
	e.VolumeID = volumeID
	e.IQN = iqn
	return e
}

// WithRecord sets the configuration record path
func (e *SecurityEvent) WithRecord(path string) *SecurityEvent {
	e.RecordPath = path
	return e
}

// WithOperation sets operation details
func (e *SecurityEvent) WithOperation(operation string, duration time.Duration) *SecurityEvent {
	e.Operation = operation
	e.Duration = duration
	return e
}

// WithError sets error information
func (e *SecurityEvent) WithError(err error) *SecurityEvent {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDetail adds a custom detail field
func (e *SecurityEvent) WithDetail(key, value string) *SecurityEvent {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}
