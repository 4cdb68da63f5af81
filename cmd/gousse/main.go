// Command gousse serves and inspects gousse sites.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information set at link time.
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "gousse",
		Short: "Serve sites built from routes, template components and events",
		Long: `gousse renders a site described in a YAML file: routes mapped to
markup, template components and a not-found page. Pages are rendered
on the server and kept live over a websocket.

Configuration is read from gousse.yaml or gousse.json, GOUSSE_*
environment variables and command-line flags, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./gousse.{yaml,json} when present)")

	root.AddCommand(
		serveCmd(&configPath),
		matchCmd(),
		renderCmd(&configPath),
		versionCmd(),
	)
	return root
}
