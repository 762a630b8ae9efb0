package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimited_ExpiredEntriesAreEvicted(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer ts.Close()

	c, err := New(Config{BaseURL: ts.URL}, nil, ts.Client())
	require.NoError(t, err)
	l, err := NewLimited(c, LimitedConfig{CacheCapacity: 0}, nil)
	require.NoError(t, err)
	defer l.Close()

	for _, key := range []string{"a", "b", "c"} {
		_, err := l.Fetch(context.Background(), &Request{URL: "/x"}, FetchOptions{Key: key, CacheTTL: 20 * time.Millisecond})
		require.NoError(t, err)
	}
	require.Equal(t, 3, l.cache.Len())

	assert.Eventually(t, func() bool { return l.cache.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLimited_CloseTwice(t *testing.T) {
	t.Parallel()
	c, err := New(Config{BaseURL: "http://127.0.0.1:1"}, nil, nil)
	require.NoError(t, err)
	l, err := NewLimited(c, DefaultLimitedConfig(), nil)
	require.NoError(t, err)

	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestRateLimitPolicy_Limit(t *testing.T) {
	t.Parallel()
	cases := []struct {
		policy RateLimitPolicy
		want   rate.Limit
	}{
		{RateLimitPolicy{MaxRequests: 2, Window: time.Second}, 2},
		{RateLimitPolicy{MaxRequests: 60, Window: time.Minute}, 1},
		{RateLimitPolicy{MaxRequests: 3, Window: 2 * time.Second}, 1.5},
	}
	for _, tc := range cases {
		assert.InDelta(t, float64(tc.want), float64(tc.policy.limit()), 1e-9, "%+v", tc.policy)
	}

	short := RateLimitPolicy{MaxRequests: 1000, Window: time.Microsecond / 2}
	assert.Error(t, short.Validate())
}

func TestRetryAfter_DoesNotTakeTokens(t *testing.T) {
	t.Parallel()
	full := rate.NewLimiter(rate.Every(time.Minute), 1)
	assert.Zero(t, retryAfter(full))
	assert.True(t, full.Allow(), "token must still be available")

	assert.InDelta(t, float64(time.Minute), float64(retryAfter(full)), float64(time.Second))
	assert.False(t, full.Allow())
}
