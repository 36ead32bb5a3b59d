package dispatch

import (
	"fmt"
	"strings"
)

// AttemptFailureReason says why attempts against a single endpoint stopped.
type AttemptFailureReason string

const (
	// Transient failures kept happening until the retry budget ran out.
	ReasonRetriesExhausted AttemptFailureReason = "retries_exhausted"

	// The endpoint hit an error that retrying cannot fix.
	ReasonFatal AttemptFailureReason = "fatal"

	// The endpoint's retry budget is configured as zero; no call was made.
	ReasonNotAttempted AttemptFailureReason = "not_attempted"
)

// AttemptError wraps the failure that ended attempts against one endpoint.
// The orchestrator inspects Reason and Cause to decide between failing over
// and aborting the whole request.
type AttemptError struct {
	Endpoint string
	Reason   AttemptFailureReason
	Cause    error
}

func (e *AttemptError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("endpoint %q: %s", e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("endpoint %q: %s: %v", e.Endpoint, e.Reason, e.Cause)
}

func (e *AttemptError) Unwrap() error {
	return e.Cause
}

// ExhaustedError is surfaced when no configured endpoint could serve the
// request. Attempted holds every endpoint that failed; Cause is the most
// recent underlying failure, or nil when no endpoint was ever attempted.
type ExhaustedError struct {
	Attempted []string
	Cause     error
}

func (e *ExhaustedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("all %d endpoints failed: %s", len(e.Attempted), strings.Join(e.Attempted, ", "))
	}
	return fmt.Sprintf("all %d endpoints failed (%s), last error: %v", len(e.Attempted), strings.Join(e.Attempted, ", "), e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}
