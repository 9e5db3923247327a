package main

import (
	"fmt"

	"github.com/aretw0/leynos/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and route files for consistency",
	Long: `Loads the configuration, compiles every route file and reports exits whose
rewrite or redirect target does not resolve, or whose template is missing.`,
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

		var templates validator.TemplateSet
		if app.Templates != nil {
			templates = app.Templates
		}
		if err := validator.ValidateRoutes(cmd.Context(), app.Kernel, routes, templates); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d routes are valid! ✅\n", len(routes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
