package apiclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/raysh454/devconsole/internal/logging"
)

// State is the per-client counterpart of the console's rate-limit banner
// counter. It belongs to one Limited instance.
type State struct {
	notifications atomic.Int64
}

// RateLimitNotifications counts calls that ran into the client-side limiter,
// whether or not a retry later let them through.
func (s *State) RateLimitNotifications() int64 {
	return s.notifications.Load()
}

type limiterEntry struct {
	lim    *rate.Limiter
	policy RateLimitPolicy
}

// Limited wraps a Client with per-key response caching, deduplication of
// concurrent identical calls and token-bucket rate limiting.
type Limited struct {
	client *Client
	logger logging.Logger

	cache *ttlcache.Cache[string, *Response]
	group singleflight.Group

	flightMu sync.Mutex
	flights  map[string]*flight

	limMu    sync.Mutex
	limiters *lru.Cache[string, *limiterEntry]

	state State

	closeOnce sync.Once
}

// flight is the detached context a shared call runs under. It is canceled
// once every caller waiting on the key has returned.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewLimited wraps client.
func NewLimited(client *Client, cfg LimitedConfig, logger logging.Logger) (*Limited, error) {
	if client == nil {
		return nil, fmt.Errorf("nil client")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MaxLimiters <= 0 {
		cfg.MaxLimiters = DefaultLimitedConfig().MaxLimiters
	}

	opts := []ttlcache.Option[string, *Response]{
		ttlcache.WithDisableTouchOnHit[string, *Response](),
	}
	if cfg.CacheCapacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *Response](cfg.CacheCapacity))
	}

	limiters, err := lru.New[string, *limiterEntry](cfg.MaxLimiters)
	if err != nil {
		return nil, fmt.Errorf("creating limiter LRU: %w", err)
	}

	l := &Limited{
		client:   client,
		logger:   logger.With(logging.F("component", "apiclient.limited")),
		cache:    ttlcache.New[string, *Response](opts...),
		flights:  make(map[string]*flight),
		limiters: limiters,
	}
	// Expired entries are only evicted by the janitor.
	go l.cache.Start()
	return l, nil
}

// State exposes the client-owned counters.
func (l *Limited) State() *State {
	return &l.state
}

// Do performs req without caching or limiting, which makes Limited a Doer.
func (l *Limited) Do(ctx context.Context, req *Request) (*Response, error) {
	return l.client.Do(ctx, req)
}

// Fetch performs req under opts. With an empty key it is identical to
// Client.Do.
func (l *Limited) Fetch(ctx context.Context, req *Request, opts FetchOptions) (*Response, error) {
	if opts.Key == "" {
		return l.client.Do(ctx, req)
	}
	if opts.RateLimit != nil {
		if err := opts.RateLimit.Validate(); err != nil {
			return nil, err
		}
	}

	if resp, ok := l.cached(opts); ok {
		l.logger.Debug("cache hit", logging.F("key", opts.Key))
		return resp, nil
	}

	f := l.join(ctx, opts.Key)
	defer l.leave(opts.Key, f)

	for {
		ch := l.group.DoChan(opts.Key, func() (any, error) {
			return l.fetchShared(f.ctx, req, opts)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				// The call belonged to a flight whose callers all left
				// before this one joined; run it again for this caller.
				if errors.Is(res.Err, context.Canceled) && ctx.Err() == nil && f.ctx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			if res.Shared {
				l.logger.Debug("shared in-flight request", logging.F("key", opts.Key))
			}
			return res.Val.(*Response), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Limited) fetchShared(ctx context.Context, req *Request, opts FetchOptions) (*Response, error) {
	// Another flight may have filled the cache while we queued.
	if resp, ok := l.cached(opts); ok {
		return resp, nil
	}
	if opts.RateLimit != nil {
		if err := l.acquire(ctx, opts.Key, *opts.RateLimit); err != nil {
			return nil, err
		}
	}
	resp, err := l.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if opts.CacheTTL > 0 {
		l.cache.Set(opts.Key, resp, opts.CacheTTL)
	}
	return resp, nil
}

func (l *Limited) join(ctx context.Context, key string) *flight {
	l.flightMu.Lock()
	defer l.flightMu.Unlock()

	f, ok := l.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		l.flights[key] = f
	}
	f.waiters++
	return f
}

func (l *Limited) leave(key string, f *flight) {
	l.flightMu.Lock()
	defer l.flightMu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.flights[key] == f {
		delete(l.flights, key)
	}
}

// Invalidate drops the cached response for key.
func (l *Limited) Invalidate(key string) {
	l.cache.Delete(key)
}

// Close stops cache eviction, clears the cache and closes the underlying
// client. It is safe to call more than once.
func (l *Limited) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.cache.Stop()
		l.cache.DeleteAll()
		err = l.client.Close()
	})
	return err
}

func (l *Limited) cached(opts FetchOptions) (*Response, bool) {
	if opts.CacheTTL <= 0 {
		return nil, false
	}
	item := l.cache.Get(opts.Key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

func (l *Limited) limiter(key string, p RateLimitPolicy) *rate.Limiter {
	limit := p.limit()

	l.limMu.Lock()
	defer l.limMu.Unlock()

	if e, ok := l.limiters.Get(key); ok {
		if e.policy != p {
			e.lim.SetLimit(limit)
			e.lim.SetBurst(p.MaxRequests)
			e.policy = p
		}
		return e.lim
	}
	e := &limiterEntry{lim: rate.NewLimiter(limit, p.MaxRequests), policy: p}
	l.limiters.Add(key, e)
	return e.lim
}

// acquire takes one token for key, waiting RetryDelay once if the bucket is
// empty.
func (l *Limited) acquire(ctx context.Context, key string, p RateLimitPolicy) error {
	lim := l.limiter(key, p)
	if lim.Allow() {
		return nil
	}

	l.state.notifications.Add(1)
	l.logger.Warn("client rate limit reached",
		logging.F("key", key),
		logging.F("max_requests", p.MaxRequests),
		logging.F("window", p.Window.String()))

	if p.RetryDelay > 0 {
		delay := min(p.RetryDelay, defaultRetryDelayCap)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
		if lim.Allow() {
			return nil
		}
	}

	return &RateLimitError{Key: key, RetryAfter: retryAfter(lim)}
}

// retryAfter estimates when the next token is due without taking one.
func retryAfter(lim *rate.Limiter) time.Duration {
	missing := 1 - lim.Tokens()
	if missing <= 0 {
		return 0
	}
	limit := lim.Limit()
	if limit <= 0 || limit == rate.Inf {
		return 0
	}
	return time.Duration(missing / float64(limit) * float64(time.Second))
}

// LimitedJSON performs req through l under opts and decodes the body into T.
func LimitedJSON[T any](ctx context.Context, l *Limited, req *Request, opts FetchOptions) (T, error) {
	resp, err := l.Fetch(ctx, req, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}
