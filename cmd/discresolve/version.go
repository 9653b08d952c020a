package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sydlexius/discresolve/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of discresolve",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "discresolve %s (%s)\n", version.Version, version.Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
