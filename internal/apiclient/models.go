package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Credentials controls whether session credentials travel with a request.
type Credentials int

const (
	// CredentialsInclude sends the cookie jar, configured cookies and the
	// bearer token. It is the zero value, so inclusion is on by default.
	CredentialsInclude Credentials = iota
	// CredentialsOmit sends no cookies and no Authorization header.
	CredentialsOmit
)

func (c Credentials) String() string {
	switch c {
	case CredentialsInclude:
		return "include"
	case CredentialsOmit:
		return "omit"
	default:
		return fmt.Sprintf("credentials(%d)", int(c))
	}
}

// Request describes one call. The client never mutates it.
type Request struct {
	// Method defaults to GET.
	Method string
	// URL is an absolute URL or a path relative to Config.BaseURL.
	URL         string
	Headers     http.Header
	Body        []byte
	Credentials Credentials
}

// Response is the raw result of a successful (2xx) call. Treat Body as
// read-only: Limited may hand the same slice to several callers.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	FetchedAt  time.Time
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// RateLimitPolicy allows at most MaxRequests per Window for one key. When the
// budget is exhausted the call waits RetryDelay once before giving up.
type RateLimitPolicy struct {
	MaxRequests int
	Window      time.Duration
	RetryDelay  time.Duration
}

// Validate reports whether the policy can be enforced.
func (p RateLimitPolicy) Validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("rate limit: max requests must be positive, got %d", p.MaxRequests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("rate limit: window must be positive, got %s", p.Window)
	}
	if p.Window < time.Duration(p.MaxRequests) {
		return fmt.Errorf("rate limit: window %s is too short for %d requests", p.Window, p.MaxRequests)
	}
	if p.RetryDelay < 0 {
		return fmt.Errorf("rate limit: retry delay must not be negative, got %s", p.RetryDelay)
	}
	return nil
}

// limit is the steady refill rate of the policy, in tokens per second.
func (p RateLimitPolicy) limit() rate.Limit {
	return rate.Limit(float64(p.MaxRequests) / p.Window.Seconds())
}

// FetchOptions carries the per-call cache and rate-limit settings for Limited.
type FetchOptions struct {
	// Key identifies the cache entry, the rate-limit bucket and the dedup
	// group. Empty disables all three.
	Key string
	// CacheTTL enables response caching under Key when positive.
	CacheTTL  time.Duration
	RateLimit *RateLimitPolicy
}

// JSONBody marshals v for use as Request.Body.
func JSONBody(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return b, nil
}
