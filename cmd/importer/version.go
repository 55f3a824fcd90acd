package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var (
	release   = "UNKNOWN"
	buildDate = "UNKNOWN"
	gitHash   = "UNKNOWN"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
				Release   string
				BuildDate string
				GitHash   string
			}{
				Release:   release,
				BuildDate: buildDate,
				GitHash:   gitHash,
			})
		},
	}
}
