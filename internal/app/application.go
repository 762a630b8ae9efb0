package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/raysh454/devconsole/internal/apiclient"
	"github.com/raysh454/devconsole/internal/logging"
	"github.com/raysh454/devconsole/internal/server"
)

// Application is the runtime state container.
// It holds config and the services shared across commands (server, logger).
// Pass Application into code that needs them rather than using package-level
// variables.
type Application struct {
	Config *Config
	Logger logging.Logger

	server  *server.Server
	httpSrv *http.Server
}

// NewApplication constructs an Application from the provided parts.
func NewApplication(cfg *Config, logger logging.Logger) *Application {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Application{
		Config: cfg,
		Logger: logger,
	}
}

// NewClient builds the rate-limited API client described by the config.
func (a *Application) NewClient(httpClient *http.Client) (*apiclient.Limited, error) {
	c, err := apiclient.New(a.Config.APIClientConfig(), a.Logger, httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}
	l, err := apiclient.NewLimited(c, a.Config.LimitedConfig(), a.Logger)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("creating limited client: %w", err)
	}
	return l, nil
}

// Serve starts the API server on ln (or on the configured address when ln is
// nil) and blocks until ctx is canceled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if a == nil {
		return errors.New("application is nil")
	}

	srvCfg := a.Config.Server
	srvCfg.Logger = a.Logger
	s, err := server.NewServer(srvCfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	a.server = s
	a.httpSrv = s.HTTPServer()

	if ln == nil {
		ln, err = net.Listen("tcp", srvCfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", srvCfg.ListenAddr, err)
		}
	}

	a.Logger.Info("application starting", logging.F("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	return a.Shutdown(context.Background())
}

// Shutdown attempts a graceful shutdown with a bounded timeout.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("http server shutdown returned error", logging.Err(err))
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	if a.server != nil {
		a.server.Close()
	}
	return nil
}
