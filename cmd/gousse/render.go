package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/gousse/internal/config"
	"github.com/vango-dev/gousse/pkg/server"
	"github.com/vango-dev/gousse/pkg/site"
)

func renderCmd(configPath *string) *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "render SITE URL",
		Short: "Render one page of a site to stdout",
		Long: `Render one page of a site the way serve would and print the HTML.

Examples:
  gousse render site.yaml /
  gousse render site.yaml '/users/42?tab=posts'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			st, err := site.Load(args[0])
			if err != nil {
				return err
			}
			logger := cfg.NewLogger(cmd.ErrOrStderr())
			srv := server.New(cfg, st,
				server.WithLogger(logger),
				server.WithRegistry(prometheus.NewRegistry()),
			)

			app, boot, err := srv.NewApp(st, args[1])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RenderTimeout)
			defer cancel()
			if err := app.Drain(ctx); err != nil {
				logger.Warn("render did not settle", "error", err)
			}
			if _, err, ok := boot.Result(); ok && err != nil {
				return err
			}
			return server.Page(app, live).Render(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Include the live client script")
	return cmd
}
