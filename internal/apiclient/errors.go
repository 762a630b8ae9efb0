package apiclient

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRequestFailed matches every *RequestError.
	ErrRequestFailed = errors.New("request failed")
	// ErrRateLimited matches every *RateLimitError.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoBaseURL is returned for a relative path when no base URL is configured.
	ErrNoBaseURL = errors.New("no base URL configured for relative path")
)

// RequestError reports a response whose status was outside 2xx.
type RequestError struct {
	Method     string
	URL        string
	Status     int
	StatusText string
}

func (e *RequestError) Error() string {
	if e.StatusText != "" {
		return fmt.Sprintf("request failed: %s %s: %d %s", e.Method, e.URL, e.Status, e.StatusText)
	}
	return fmt.Sprintf("request failed: %s %s: %d", e.Method, e.URL, e.Status)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// RateLimitError reports a call rejected by the client-side limiter.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: key %q, retry after %s", e.Key, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// StatusCode extracts the HTTP status from a *RequestError, or 0.
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
