package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gousse/internal/config"
	"github.com/vango-dev/gousse/pkg/server"
	"github.com/vango-dev/gousse/pkg/site"
)

// serveBindings maps config keys to serve flags.
var serveBindings = map[string]string{
	"server.addr":          "addr",
	"server.site":          "site",
	"server.watch":         "watch",
	"server.renderTimeout": "render-timeout",
	"router.mode":          "router",
	"log.level":            "log-level",
}

func serveCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a site",
		Long: `Serve a site over HTTP with live sessions and Prometheus metrics.

Examples:
  gousse serve
  gousse serve --site=docs.yaml --addr=:3000
  gousse serve --watch --log-level=debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath, config.WithFlags(cmd.Flags(), serveBindings))
			if err != nil {
				return err
			}
			logger := cfg.NewLogger(os.Stderr)

			st, err := site.Load(cfg.Server.Site)
			if err != nil {
				return err
			}
			srv := server.New(cfg, st, server.WithLogger(logger))

			ctx := cmd.Context()
			if cfg.Server.Watch {
				go func() {
					if err := srv.Watch(ctx, cfg.Server.Site, 0); err != nil {
						logger.Error("site watcher stopped", "error", err)
					}
				}()
			}
			return srv.ListenAndServe(ctx)
		},
	}

	d := config.Default()
	cmd.Flags().StringP("addr", "a", d.Server.Addr, "Listen address")
	cmd.Flags().StringP("site", "s", d.Server.Site, "Site definition file")
	cmd.Flags().BoolP("watch", "w", false, "Reload the site file when it changes")
	cmd.Flags().Duration("render-timeout", d.Server.RenderTimeout, "Bound on one server-side render")
	cmd.Flags().String("router", d.Router.Mode, "Router mode: hash or pushstate")
	cmd.Flags().String("log-level", d.Log.Level, "Log level: debug, info, warn or error")

	return cmd
}
