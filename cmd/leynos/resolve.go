package main

import (
	"fmt"
	"net/http"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/internal/presentation/graph"
	"github.com/aretw0/leynos/internal/presentation/tui"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show how a path resolves",
	Long: `Resolves a request path to its group and route and prints the options in
force. With --dispatch the request is executed and the response printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		method, _ := cmd.Flags().GetString("method")
		out := cmd.OutOrStdout()

		res, err := app.Kernel.Resolve(cmd.Context(), args[0], method)
		if err != nil {
			return err
		}
		tui.PrintResolution(out, res)

		if run, _ := cmd.Flags().GetBool("dispatch"); !run {
			return nil
		}

		params, _ := cmd.Flags().GetStringToString("param")
		req := &domain.Request{Path: args[0], Method: method, Params: make(map[string]any, len(params))}
		for k, v := range params {
			req.Params[k] = v
		}

		rec := leynos.NewRecorder()
		result := app.Kernel.Dispatch(cmd.Context(), req, rec)

		fmt.Fprintf(out, "\n%d %s\n", rec.Code, http.StatusText(rec.Code))
		if rec.Location != "" {
			fmt.Fprintf(out, "Location: %s\n", rec.Location)
		}
		if len(result.Rewrites) > 0 {
			visited := []string{res.GroupName + "/" + res.Route.Name()}
			for _, target := range result.Rewrites {
				if id, ok := graph.RouteID(target); ok {
					visited = append(visited, id)
				}
			}
			fmt.Fprintf(out, "Rewrites: %v\n", result.Rewrites)
			if show, _ := cmd.Flags().GetBool("graph"); show {
				routes, err := app.Kernel.Routes()
				if err != nil {
					return err
				}
				fmt.Fprint(out, graph.GenerateMermaid(routes, &graph.GraphOverlay{
					VisitedRoutes: visited[:len(visited)-1],
					CurrentRoute:  visited[len(visited)-1],
				}))
			}
		}
		fmt.Fprintf(out, "\n%s\n", rec.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("method", "X", http.MethodGet, "Request method")
	resolveCmd.Flags().Bool("dispatch", false, "Execute the request and print the response")
	resolveCmd.Flags().StringToStringP("param", "p", nil, "Request parameter (key=value), repeatable")
	resolveCmd.Flags().Bool("graph", false, "With --dispatch, print the route graph with the rewrites taken")
}
