package client

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse marks a call that completed but carried no usable content.
// The dispatcher retries it like a network hiccup.
var ErrEmptyResponse = errors.New("empty response from endpoint")

// NetworkError wraps a transport-level failure (connection refused, timeout,
// DNS, broken pipe).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if hint, ok := statusHints[e.StatusCode]; ok {
		return fmt.Sprintf("http %d (%s): %s", e.StatusCode, hint, e.Body)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Human-readable hints for statuses backends commonly return.
var statusHints = map[int]string{
	400: "invalid request parameters",
	401: "authentication failed, check the configured API key",
	402: "insufficient account balance",
	403: "forbidden, the account may need verification or funds",
	404: "not found",
	413: "request payload too large",
	429: "rate limited, retry later",
	500: "server error",
	503: "server overloaded",
}
