package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/ryanparsons7/calendly-notion/internal/syncer"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a single sync pass and print its report",
		Long: `Run a single sync pass over the lookahead window and print the report.

The command fails when the configuration is invalid or the events cannot be
listed. Events that fail individually are reported but do not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer cancel()
			return runOnce(ctx, opts, cmd)
		},
	}
}

func runOnce(ctx context.Context, opts *rootOptions, cmd *cobra.Command) error {
	c, err := prepare(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}
	defer c.Close()

	report, runErr := c.engine.Run(ctx, c.config.SyncerConfig())
	if runErr != nil && errors.Is(runErr, syncer.ErrInvalidConfig) {
		return runErr
	}
	if err := writeReport(cmd.OutOrStdout(), opts.Format, report); err != nil {
		return err
	}
	return runErr
}
