package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOpts) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console API server",
		Long: `Serves /api/health, /api/dev/console/tail, the live console WebSocket
and the stub routes for unimplemented features. Stops gracefully on
SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if listen != "" {
				a.Config.Server.ListenAddr = listen
			}
			return a.Serve(cmd.Context(), nil)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
