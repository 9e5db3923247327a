package main

import (
	"fmt"

	"github.com/aretw0/leynos"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of leynos",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "leynos version %s\n", leynos.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
