// Package screenctl drives a running screening server: it generates
// synthetic candidate files, uploads them, downloads exports and checks the
// ranked list for consistency.
package screenctl

import (
	"errors"
	"time"
)

// Defaults shared by the CLI flags.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
)

// ErrVerification is returned when the ranked list is inconsistent.
var ErrVerification = errors.New("verification failed")

// Config holds the connection settings for a Client.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Enable verbose logging
}
