package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopm/internal/sandbox"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the paths a start would grant, in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, _, err := ctx.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Startup promises: %s\n", sandbox.BroadPromises)
			fmt.Fprintln(out, renderFootprint(sandbox.Footprint(set, ctx.debug > 0)))
			return nil
		},
	}
}
