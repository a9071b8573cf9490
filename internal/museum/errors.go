// Package museum provides an HTTP client for the public albums API
// with automatic retry and error classification.
package museum

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, museum.ErrUnauthorized) to check.
var (
	ErrBadRequest   = errors.New("museum: bad request")
	ErrUnauthorized = errors.New("museum: unauthorized")
	ErrForbidden    = errors.New("museum: forbidden")
	ErrNotFound     = errors.New("museum: not found")
	ErrGone         = errors.New("museum: resource gone")
	ErrRateLimited  = errors.New("museum: rate limited")
	ErrServerError  = errors.New("museum: server error")
)

// APIError wraps a sentinel error with the HTTP status code and the
// response body for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("museum: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return ErrGone
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
// 429 is deliberately excluded: the server rate-limits public links hard,
// and the caller classifies it as a terminal outcome instead.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
