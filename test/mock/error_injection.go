package mock

import (
	"sync"

	"k8s.io/klog/v2"
)

// ErrorMode defines the type of error to inject
type ErrorMode int

const (
	// ErrorModeNone indicates no error injection
	ErrorModeNone ErrorMode = iota
	// ErrorModeUpdateFail makes tgt-admin --update exit non-zero
	ErrorModeUpdateFail
	// ErrorModeDeleteFail makes tgt-admin --delete exit non-zero, as with a busy target
	ErrorModeDeleteFail
	// ErrorModeShowFail makes tgt-admin --show exit non-zero
	ErrorModeShowFail
	// ErrorModeNotIncluded simulates a targets.conf without the include line:
	// --update succeeds but no target is created
	ErrorModeNotIncluded
)

// ErrorInjector manages error injection for testing
type ErrorInjector struct {
	mode         ErrorMode
	operationNum int
	triggerAfter int
	mu           sync.Mutex // Protect operation counter
}

// NewErrorInjector creates a new error injector from configuration
func NewErrorInjector(config MockTgtdConfig) *ErrorInjector {
	return &ErrorInjector{
		mode:         ParseErrorMode(config.ErrorMode),
		triggerAfter: config.ErrorAfterN,
	}
}

// ParseErrorMode converts string error mode to ErrorMode constant
func ParseErrorMode(s string) ErrorMode {
	switch s {
	case "update_fail":
		return ErrorModeUpdateFail
	case "delete_fail":
		return ErrorModeDeleteFail
	case "show_fail":
		return ErrorModeShowFail
	case "not_included":
		return ErrorModeNotIncluded
	case "none", "":
		return ErrorModeNone
	default:
		klog.Warningf("Unknown error mode %q, using none", s)
		return ErrorModeNone
	}
}

// SetMode switches the injected error and resets the operation counter
func (e *ErrorInjector) SetMode(mode ErrorMode, triggerAfter int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
	e.triggerAfter = triggerAfter
	e.operationNum = 0
}

// shouldFail counts an operation subject to mode and reports whether it fails
func (e *ErrorInjector) shouldFail(mode ErrorMode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != mode {
		return false
	}

	e.operationNum++
	return e.operationNum > e.triggerAfter
}

// ShouldFailUpdate returns whether tgt-admin --update should fail and the error message
func (e *ErrorInjector) ShouldFailUpdate() (bool, string) {
	if !e.shouldFail(ErrorModeUpdateFail) {
		return false, ""
	}
	return true, "tgtadm: failed to send request hdr to tgt daemon, Transport endpoint is not connected\n"
}

// ShouldFailDelete returns whether tgt-admin --delete should fail and the error message
func (e *ErrorInjector) ShouldFailDelete() (bool, string) {
	if !e.shouldFail(ErrorModeDeleteFail) {
		return false, ""
	}
	return true, "tgtadm: this target is still active\n"
}

// ShouldFailShow returns whether tgt-admin --show should fail and the error message
func (e *ErrorInjector) ShouldFailShow() (bool, string) {
	if !e.shouldFail(ErrorModeShowFail) {
		return false, ""
	}
	return true, "tgtadm: can't send the request to the tgt daemon, Transport endpoint is not connected\n"
}

// IgnoreIncludes returns whether --update should behave as if the include
// directory is not part of the tgtd configuration
func (e *ErrorInjector) IgnoreIncludes() bool {
	return e.shouldFail(ErrorModeNotIncluded)
}

// Reset resets the operation counter for test isolation
func (e *ErrorInjector) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.operationNum = 0
}
