package utils

import "errors"

// Sentinel errors for common conditions.
// Use errors.Is() to check for these rather than string matching.
var (
	// ErrInvalidParameter indicates an invalid parameter was provided
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOperationTimeout indicates retries were exhausted
	ErrOperationTimeout = errors.New("operation timeout")
)
