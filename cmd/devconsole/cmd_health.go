package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/devconsole/internal/apiclient"
	"github.com/raysh454/devconsole/internal/server"
)

func newHealthCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check /api/health on the configured server",
		Args:  cobra.NoArgs,
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

			h, err := apiclient.GetJSON[server.HealthResponse](cmd.Context(), client, "/api/health")
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (server time %s)\n", h.Status, time.UnixMilli(h.Timestamp).UTC().Format(time.RFC3339))
			return nil
		},
	}
}
