package makecom

import (
	"errors"
	"fmt"
)

// UpstreamError represents a non-2xx response from Make.com or a webhook
// target. The remote status and body are preserved so the route layer can
// pass them through.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("makecom: upstream responded with %d", e.StatusCode)
}

// IsAuthError reports whether the upstream rejected our credentials.
func (e *UpstreamError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// TimeoutError represents a network failure or exceeded timeout budget while
// calling out on the caller's behalf.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("makecom: request failed: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ErrNotConnected is returned when an operation needs a stored credential and
// none is present.
var ErrNotConnected = errors.New("makecom: not connected")
