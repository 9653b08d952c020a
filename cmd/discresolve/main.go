// Package main is the entry point for the discresolve service and CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

var rootCmd = &cobra.Command{
	Use:   "discresolve",
	Short: "Resolve free-text release descriptions to Discogs records",
	Long: `discresolve turns a noisy description of a music release, such as a
retail listing title, into a canonical Discogs release or master URL. It uses
a web search provider to discover candidates and the Discogs API to enrich
the match with a title and cover image.

Run "discresolve serve" for the HTTP API or "discresolve resolve <query>"
for a single lookup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $DR_CONFIG_PATH)")
}

// configPath returns the --config flag, falling back to DR_CONFIG_PATH.
func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return os.Getenv("DR_CONFIG_PATH")
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.msg != "" {
			fmt.Fprintln(os.Stderr, exitErr.msg)
		}
		os.Exit(exitErr.code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
