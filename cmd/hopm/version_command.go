package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopm/internal/daemonrun"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "HOPM %s\n", daemonrun.Version)
			return nil
		},
	}
}
