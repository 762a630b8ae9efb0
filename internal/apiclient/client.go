package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/raysh454/devconsole/internal/logging"
)

// Client performs JSON requests against the devconsole API. It is safe for
// concurrent use. It sets no timeout of its own; bound calls with ctx.
type Client struct {
	cfg    Config
	base   string
	token  string
	logger logging.Logger

	// withCreds carries the session jar; withoutCreds shares its transport
	// but has no jar.
	withCreds    *http.Client
	withoutCreds *http.Client
}

// New builds a Client. httpClient may be nil; if it has no Jar one is created
// and seeded with cfg.Cookies.
func New(cfg Config, logger logging.Logger, httpClient *http.Client) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
		}
	}

	withCreds := *httpClient
	if withCreds.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		withCreds.Jar = jar
	}
	if len(cfg.Cookies) > 0 {
		if base == "" {
			return nil, fmt.Errorf("seeding cookies: %w", ErrNoBaseURL)
		}
		u, _ := url.Parse(base)
		withCreds.Jar.SetCookies(u, cfg.Cookies)
	}

	withoutCreds := *httpClient
	withoutCreds.Jar = nil

	componentLogger := logger.With(logging.F("component", "apiclient"))
	componentLogger.Debug("created api client", logging.F("base_url", base))

	return &Client{
		cfg:          cfg,
		base:         base,
		token:        cfg.Token,
		logger:       componentLogger,
		withCreds:    &withCreds,
		withoutCreds: &withoutCreds,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// ResolveURL joins a relative path onto the base URL. Absolute URLs are
// returned unchanged.
func (c *Client) ResolveURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing request URL: %w", err)
	}
	if u.IsAbs() {
		return target, nil
	}
	if c.base == "" {
		return "", ErrNoBaseURL
	}
	return c.base + "/" + strings.TrimLeft(target, "/"), nil
}

// Headers returns the headers a request would be sent with: JSON defaults,
// configured defaults, auth (when credentials are included), then the
// caller's headers, which win on collision.
func (c *Client) Headers(req *Request) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		h.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, vs := range c.cfg.DefaultHeaders {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	if req.Credentials == CredentialsInclude && c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range req.Headers {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return h
}

// Do performs exactly one request. A non-2xx status yields a *RequestError
// and no response. Transport errors from net/http are returned unchanged.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.ResolveURL(req.URL)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header = c.Headers(req)

	hc := c.withCreds
	if req.Credentials == CredentialsOmit {
		hc = c.withoutCreds
	}

	c.logger.Debug("sending api request",
		logging.F("method", method),
		logging.F("url", target),
		logging.F("credentials", req.Credentials.String()))

	resp, err := hc.Do(httpReq)
	if err != nil {
		c.logger.Warn("api request failed",
			logging.F("method", method),
			logging.F("url", target),
			logging.Err(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		rerr := &RequestError{
			Method:     method,
			URL:        target,
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
		}
		c.logger.Warn("api request returned error status",
			logging.F("method", method),
			logging.F("url", target),
			logging.F("status", resp.StatusCode))
		return nil, rerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		FetchedAt:  time.Now(),
	}, nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() error {
	c.withCreds.CloseIdleConnections()
	c.logger.Debug("closed api client")
	return nil
}

func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if txt := strings.TrimPrefix(resp.Status, prefix); txt != "" && txt != resp.Status {
		return txt
	}
	return http.StatusText(resp.StatusCode)
}

// Doer is satisfied by both Client and Limited.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Decode unmarshals a response body into T. A 204 or empty body yields the
// zero value.
func Decode[T any](resp *Response) (T, error) {
	var out T
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(resp.Body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// JSON performs req through d and decodes the body into T.
func JSON[T any](ctx context.Context, d Doer, req *Request) (T, error) {
	resp, err := d.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}

// GetJSON is shorthand for a credentialed GET.
func GetJSON[T any](ctx context.Context, d Doer, path string) (T, error) {
	return JSON[T](ctx, d, &Request{Method: http.MethodGet, URL: path})
}

// PostJSON marshals body and POSTs it.
func PostJSON[T any](ctx context.Context, d Doer, path string, body any) (T, error) {
	b, err := JSONBody(body)
	if err != nil {
		var zero T
		return zero, err
	}
	return JSON[T](ctx, d, &Request{Method: http.MethodPost, URL: path, Body: b})
}
