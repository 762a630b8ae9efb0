package apiclient

import (
	"net/http"
	"time"
)

// Config is the explicit configuration handed to New. Nothing in this package
// reads the process environment; callers resolve BaseURL themselves (see
// app.Load).
type Config struct {
	// BaseURL is prefixed to relative request paths. Empty means callers must
	// pass absolute URLs.
	BaseURL string

	// Token, when set, is sent as a bearer Authorization header on requests
	// that include credentials.
	Token string

	// Cookies are seeded into the session jar for BaseURL and sent on
	// requests that include credentials.
	Cookies []*http.Cookie

	// DefaultHeaders are applied to every request before caller headers.
	DefaultHeaders http.Header

	// UserAgent overrides the Go default when non-empty.
	UserAgent string
}

// LimitedConfig sizes the shared state of a Limited client.
type LimitedConfig struct {
	// CacheCapacity bounds the number of cached responses (0 = unbounded; expired entries are still evicted).
	CacheCapacity uint64

	// MaxLimiters bounds the number of per-key rate limiters kept in memory.
	MaxLimiters int
}

// DefaultLimitedConfig returns the sizing used by the CLI.
func DefaultLimitedConfig() LimitedConfig {
	return LimitedConfig{
		CacheCapacity: 1024,
		MaxLimiters:   256,
	}
}

// DefaultConfig returns a Config with no base URL and the devconsole user agent.
func DefaultConfig() Config {
	return Config{
		UserAgent: "devconsole-client/0.1",
	}
}

// defaultRetryDelayCap limits how long a single rate-limit retry may wait.
const defaultRetryDelayCap = time.Minute
