// Command devconsole serves the developer console API and talks to it.
//
// Usage:
//
//	devconsole serve [--config devconsole.yaml]
//	devconsole get /api/dev/console/tail?limit=5
//	devconsole health
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raysh454/devconsole/internal/app"
	"github.com/raysh454/devconsole/internal/logging"
)

const defaultConfigPath = "devconsole.yaml"

type globalOpts struct {
	configPath string
	verbose    bool
	baseURL    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "devconsole",
		Short:         "Developer console API server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default ./"+defaultConfigPath+" if present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "API base URL (overrides config and environment)")

	root.AddCommand(newServeCmd(opts), newGetCmd(opts), newHealthCmd(opts))
	return root
}

// loadApp resolves config and builds the Application for a command.
func loadApp(opts *globalOpts) (*app.Application, *logging.ZapLogger, error) {
	var (
		cfg *app.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = app.Load(opts.configPath, os.LookupEnv)
	} else {
		cfg, err = app.LoadDefaultPath(defaultConfigPath, os.LookupEnv)
	}
	if err != nil {
		return nil, nil, err
	}
	if opts.baseURL != "" {
		cfg.Client.BaseURL = opts.baseURL
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.NewZapLogger("devconsole", cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.NewApplication(cfg, logger), logger, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
