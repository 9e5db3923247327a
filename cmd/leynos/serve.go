package main

import (
	"context"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/internal/cli"
	"github.com/aretw0/leynos/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the dispatch engine behind an HTTP server. Metrics are served on
/metrics, or on http.metrics_addr when configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.HTTP.Addr = addr
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(cmd.OutOrStdout(), leynos.Version)
		}

		ctx, stop := cli.SignalContext(context.Background())
		defer stop()
		return app.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
