package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/devconsole/internal/apiclient"
)

type getOpts struct {
	method      string
	data        string
	key         string
	ttl         time.Duration
	maxRequests int
	window      time.Duration
	retryDelay  time.Duration
	omitCreds   bool
	repeat      int
}

func newGetCmd(opts *globalOpts) *cobra.Command {
	g := &getOpts{}

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Call a JSON endpoint and print the decoded body",
		Long: `Sends one request per --repeat through the rate-limited client.
--key enables dedup, --ttl caching and --max-requests/--window limiting
for that key.

Example:
  devconsole get /api/dev/console/tail?limit=5
  devconsole get /api/health --key health --ttl 5s --repeat 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			client, err := a.NewClient(nil)
			if err != nil {
				return err
			}
			defer client.Close()

			req, fetchOpts, err := g.build(args[0])
			if err != nil {
				return err
			}
			return runGet(cmd, client, req, fetchOpts, g.repeat)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&g.method, "method", "X", http.MethodGet, "HTTP method")
	f.StringVarP(&g.data, "data", "d", "", "JSON request body")
	f.StringVar(&g.key, "key", "", "cache/rate-limit key")
	f.DurationVar(&g.ttl, "ttl", 0, "cache TTL for --key")
	f.IntVar(&g.maxRequests, "max-requests", 0, "rate limit: requests per window for --key")
	f.DurationVar(&g.window, "window", time.Minute, "rate limit window")
	f.DurationVar(&g.retryDelay, "retry-delay", 0, "wait once this long when rate limited")
	f.BoolVar(&g.omitCreds, "omit-credentials", false, "send no cookies or Authorization header")
	f.IntVar(&g.repeat, "repeat", 1, "number of times to send the request")
	return cmd
}

func (g *getOpts) build(path string) (*apiclient.Request, apiclient.FetchOptions, error) {
	req := &apiclient.Request{Method: g.method, URL: path}
	if g.data != "" {
		if !json.Valid([]byte(g.data)) {
			return nil, apiclient.FetchOptions{}, fmt.Errorf("--data is not valid JSON")
		}
		req.Body = []byte(g.data)
	}
	if g.omitCreds {
		req.Credentials = apiclient.CredentialsOmit
	}

	fo := apiclient.FetchOptions{Key: g.key, CacheTTL: g.ttl}
	if g.maxRequests > 0 {
		fo.RateLimit = &apiclient.RateLimitPolicy{
			MaxRequests: g.maxRequests,
			Window:      g.window,
			RetryDelay:  g.retryDelay,
		}
	}
	if g.repeat < 1 {
		g.repeat = 1
	}
	return req, fo, nil
}

func runGet(cmd *cobra.Command, client *apiclient.Limited, req *apiclient.Request, fo apiclient.FetchOptions, repeat int) error {
	out := cmd.OutOrStdout()
	for i := 0; i < repeat; i++ {
		resp, err := client.Fetch(cmd.Context(), req, fo)
		if err != nil {
			return err
		}
		body, err := apiclient.Decode[any](resp)
		if err != nil {
			return err
		}
		if err := printJSON(out, body); err != nil {
			return err
		}
	}
	if n := client.State().RateLimitNotifications(); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "rate limited %d time(s)\n", n)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
