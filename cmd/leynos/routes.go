package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/leynos/internal/presentation/graph"
	"github.com/aretw0/leynos/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the configured routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		routes, err := app.Kernel.Routes()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table":
			rendered, err := tui.NewRenderer()(tui.RoutesMarkdown(routes))
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(routes)
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(routes, nil))
		default:
			return fmt.Errorf("unknown format %q (table, json, mermaid)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringP("format", "f", "table", "Output format: table, json or mermaid")
}
