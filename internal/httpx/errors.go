package httpx

import (
	"fmt"
	"time"
)

// TimeoutError reports that the per-call deadline fired before a response
// arrived.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// TransportError reports a network-layer failure (DNS, connection refused,
// TLS) before any HTTP response was received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
