package main

import (
	"github.com/spf13/cobra"

	"hopm/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "hopm",
		Short:         "Open proxy monitor daemon",
		Version:       daemonrun.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runDaemon(ctx.daemonOptions())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configName, "config-name", "c", "", "Configuration name (default \"hopm\")")
	rootCmd.PersistentFlags().CountVarP(&ctx.debug, "debug", "d", "Stay in the foreground and log at debug level; repeat to raise")

	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newSignalCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
