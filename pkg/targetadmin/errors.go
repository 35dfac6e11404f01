package targetadmin

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	// ErrExportCreateFailed indicates tgt-admin could not apply a new export
	ErrExportCreateFailed = errors.New("iser target create failed")

	// ErrExportRemoveFailed indicates an export could not be removed
	ErrExportRemoveFailed = errors.New("iser target remove failed")

	// ErrNotFound indicates the export is absent from tgtd's live target list
	ErrNotFound = errors.New("resource could not be found")

	// ErrInvalidParameterValue indicates a caller-supplied value was rejected
	ErrInvalidParameterValue = errors.New("invalid parameter value")

	// ErrNotSupported is returned by hooks a helper does not implement
	ErrNotSupported = errors.New("operation not supported by this target helper")

	// ErrUnknownHelper indicates iser_helper names no known helper
	ErrUnknownHelper = errors.New("unknown iser helper")
)

// ExportCreateFailedError is returned when applying a new export fails.
// The configuration record has already been rolled back.
type ExportCreateFailedError struct {
	VolumeID string
	Err      error
}

func (e *ExportCreateFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to create iser target for volume id %s: %v", e.VolumeID, e.Err)
	}
	return fmt.Sprintf("failed to create iser target for volume id %s", e.VolumeID)
}

func (e *ExportCreateFailedError) Is(target error) bool {
	return target == ErrExportCreateFailed
}

func (e *ExportCreateFailedError) Unwrap() error {
	return e.Err
}

// ExportRemoveFailedError is returned when an export cannot be removed.
// The configuration record, if any, is left in place.
type ExportRemoveFailedError struct {
	VolumeID string
	Err      error
}

func (e *ExportRemoveFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to remove iser target for volume id %s: %v", e.VolumeID, e.Err)
	}
	return fmt.Sprintf("failed to remove iser target for volume id %s", e.VolumeID)
}

func (e *ExportRemoveFailedError) Is(target error) bool {
	return target == ErrExportRemoveFailed
}

func (e *ExportRemoveFailedError) Unwrap() error {
	return e.Err
}

// InvalidParameterValueError reports a rejected caller-supplied value
type InvalidParameterValueError struct {
	Message string
}

func (e *InvalidParameterValueError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidParameterValue, e.Message)
}

func (e *InvalidParameterValueError) Is(target error) bool {
	return target == ErrInvalidParameterValue
}

// notFound wraps ErrNotFound with the IQN that was looked up
func notFound(iqn string) error {
	return fmt.Errorf("%w: iser target %s", ErrNotFound, iqn)
}
