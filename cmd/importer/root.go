package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigFile string
	Format     string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import scheduled meetings into a Notion database",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "./configs/importer.yaml", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "report format (text|json|yaml)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
