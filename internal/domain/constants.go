package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for files that may hold credentials (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultHTTPTimeout bounds a single HTTP request
	DefaultHTTPTimeout = 10 * time.Second
	// DefaultProbeTimeout bounds a whole probe, all retries and backoff included
	DefaultProbeTimeout = 60 * time.Second
	// DefaultBrowserTimeout bounds page load in the browser probe
	DefaultBrowserTimeout = 30 * time.Second
	// DefaultMaxResponseTime is the slow-response warning threshold
	DefaultMaxResponseTime = 5 * time.Second
	// DefaultInitialBackoff is the first retry delay
	DefaultInitialBackoff = 1 * time.Second
)

// Limit constants
const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3
	// DefaultMinPageSize is the smallest dashboard page considered substantial
	DefaultMinPageSize = 1000
)

// DefaultRetryStatusCodes are the HTTP statuses retried by the client.
func DefaultRetryStatusCodes() []int {
	return []int{429, 500, 502, 503, 504}
}

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
