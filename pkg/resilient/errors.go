package resilient

import (
	"errors"
	"fmt"
)

// ErrAuthExpired reports a 401 from the backend. The session has already
// been cleared and the auth-expired hook fired by the time callers see it.
var ErrAuthExpired = errors.New("authentication expired")

// ErrMalformedResponse reports a response body that could not be parsed by
// the key-casing adapter.
var ErrMalformedResponse = errors.New("malformed response body")

// TransientError is a retryable-class failure that survived the full retry
// budget. Status is zero for transport-level failures.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient failure: %v", e.Err)
	}
	return fmt.Sprintf("transient failure: status %d", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a non-retryable HTTP failure (4xx/5xx outside the
// retryable set). Message carries the backend envelope's message when one
// was present.
type PermanentError struct {
	Status  int
	Message string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed: status %d", e.Status)
}
