// Package mock provides an environment-configurable mock tgtd for testing.
//
// The mock implements k8s.io/utils/exec.Interface and answers tgt-admin
// invocations from configuration records in an include directory, the way
// tgtd does with "include <dir>/*" in targets.conf.
//
// Environment Variables:
//
// Timing Control:
//   - MOCK_TGTD_REALISTIC_TIMING: Enable realistic timing simulation (default: false)
//   - MOCK_TGTD_UPDATE_DELAY_MS: tgt-admin --update delay in ms (default: 300)
//   - MOCK_TGTD_DELETE_DELAY_MS: tgt-admin --delete delay in ms (default: 200)
//   - MOCK_TGTD_SHOW_DELAY_MS: tgt-admin --show delay in ms (default: 50)
//
// Error Injection:
//   - MOCK_TGTD_ERROR_MODE: Error injection mode (none|update_fail|delete_fail|show_fail|not_included)
//   - MOCK_TGTD_ERROR_AFTER_N: Fail after N operations (default: 0 = immediate)
//
// Observability:
//   - MOCK_TGTD_ENABLE_HISTORY: Enable command history tracking (default: true)
//   - MOCK_TGTD_HISTORY_DEPTH: Maximum history entries (default: 100)
package mock

import (
	"os"
	"strconv"
)

// MockTgtdConfig holds configuration for mock tgtd behavior
type MockTgtdConfig struct {
	// Timing control
	RealisticTiming bool // MOCK_TGTD_REALISTIC_TIMING (default: false)
	UpdateDelayMs   int  // MOCK_TGTD_UPDATE_DELAY_MS (default: 300)
	DeleteDelayMs   int  // MOCK_TGTD_DELETE_DELAY_MS (default: 200)
	ShowDelayMs     int  // MOCK_TGTD_SHOW_DELAY_MS (default: 50)

	// Error injection
	ErrorMode   string // MOCK_TGTD_ERROR_MODE (none|update_fail|delete_fail|show_fail|not_included)
	ErrorAfterN int    // MOCK_TGTD_ERROR_AFTER_N (fail after N operations, default: 0 = immediate)

	// Observability
	EnableHistory bool // MOCK_TGTD_ENABLE_HISTORY (default: true)
	HistoryDepth  int  // MOCK_TGTD_HISTORY_DEPTH (default: 100)
}

// LoadConfigFromEnv loads mock tgtd configuration from environment variables
func LoadConfigFromEnv() MockTgtdConfig {
	return MockTgtdConfig{
		RealisticTiming: getEnvBool("MOCK_TGTD_REALISTIC_TIMING", false),
		UpdateDelayMs:   getEnvInt("MOCK_TGTD_UPDATE_DELAY_MS", 300),
		DeleteDelayMs:   getEnvInt("MOCK_TGTD_DELETE_DELAY_MS", 200),
		ShowDelayMs:     getEnvInt("MOCK_TGTD_SHOW_DELAY_MS", 50),
		ErrorMode:       getEnvString("MOCK_TGTD_ERROR_MODE", "none"),
		ErrorAfterN:     getEnvInt("MOCK_TGTD_ERROR_AFTER_N", 0),
		EnableHistory:   getEnvBool("MOCK_TGTD_ENABLE_HISTORY", true),
		HistoryDepth:    getEnvInt("MOCK_TGTD_HISTORY_DEPTH", 100),
	}
}

// getEnvBool reads a boolean environment variable with a default value
func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1" || val == "yes"
}

// getEnvInt reads an integer environment variable with a default value
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// getEnvString reads a string environment variable with a default value
func getEnvString(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
