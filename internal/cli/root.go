// Package cli wires configuration, storage and the HTTP server into the
// myquiz command.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs the CLI. With no subcommand it serves the API.
func Execute(ctx context.Context, stdout io.Writer) error {
	return newRootCmd(stdout).ExecuteContext(ctx)
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "myquiz",
		Short:         "Quiz backend: quizzes, scores and admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), stdout)
		},
	}
	cmd.SetOut(stdout)

	cmd.AddCommand(newServeCmd(stdout))
	cmd.AddCommand(newMigrateCmd(stdout))
	cmd.AddCommand(newHashPasswordCmd(stdout))
	return cmd
}
