package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedPayload marks a response body that could not be decoded
var ErrMalformedPayload = errors.New("malformed payload")

// ErrEmptyResult marks a successful task_get whose task carries no result
var ErrEmptyResult = errors.New("task returned no result")

// TransportError wraps failures below the HTTP layer: dial, timeout, reset
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError is an explicit refusal by the service, either an HTTP
// status outside 2xx or a DataForSEO status code other than 20000.
type RejectionError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rejected (http %d, status %d): %s", e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("rejected (http %d): %s", e.HTTPStatus, e.Message)
}

// IsAuth reports authentication or account failures (HTTP 401/403, status 401xx/402xx)
func (e *RejectionError) IsAuth() bool {
	if e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden {
		return true
	}
	family := e.Code / 100
	return family == 401 || family == 402
}

// IsRetryable reports whether a failed call may succeed when repeated
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rej *RejectionError
	if errors.As(err, &rej) {
		return !rej.IsAuth()
	}
	return true
}
