package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error is a failed gateway call: a non-2xx status, or a 2xx whose body
// reported success=false.
type Error struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("gateway %s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// Temporary reports whether a later attempt may succeed.
func (e *Error) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// TimeoutError is returned when the client gave up waiting.
type TimeoutError struct {
	Endpoint string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gateway %s: timed out after %s", e.Endpoint, e.After)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Status
	}
	return 0
}
