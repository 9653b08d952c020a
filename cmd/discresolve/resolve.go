package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sydlexius/discresolve/internal/api"
	"github.com/sydlexius/discresolve/internal/logging"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>...",
	Short: "Resolve one query and print the result as JSON",
	Long: `Resolve runs a single resolution and prints the same JSON body the HTTP
API would return. Arguments are joined with spaces into one query.

Exit status is 0 on a match, 2 when no Discogs record was found and 1 on
any error. Logs go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pretty, _ := cmd.Flags().GetBool("pretty")
		if !cmd.Flags().Changed("pretty") {
			pretty = term.IsTerminal(int(os.Stdout.Fd()))
		}
		return runResolve(cmd.Context(), configPath(cmd), strings.Join(args, " "), pretty, cmd.OutOrStdout())
	},
}

func init() {
	resolveCmd.Flags().Bool("pretty", false, "indent JSON output (default: when stdout is a terminal)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(ctx context.Context, cfgPath, query string, pretty bool, out io.Writer) error {
	a, err := newApp(cfgPath, func(c *logging.Config) {
		c.Output = logging.OutputStderr
	})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := a.resolver.Resolve(ctx, query)
	if err != nil {
		api.LogResolveError(ctx, a.logger, err)
	}
	status, body := api.BuildResponse(outcome, err)

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if encErr := enc.Encode(body); encErr != nil {
		return fmt.Errorf("writing result: %w", encErr)
	}

	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return &exitError{code: 2}
	default:
		return &exitError{code: 1}
	}
}
