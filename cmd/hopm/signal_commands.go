package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopm/internal/daemonctl"
)

func newSignalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "signal restart|reopen|stop",
		Short:     "Ask the running daemon to restart, reopen its logs or stop",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(daemonctl.ActionRestart), string(daemonctl.ActionReopen), string(daemonctl.ActionStop)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := daemonctl.ParseAction(args[0])
			if err != nil {
				return err
			}
			set, _, err := ctx.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pid, err := daemonctl.Send(set.PidFile, action)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s (%s) to pid %d\n", action, action.Signal(), pid)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, _, err := ctx.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			status, err := daemonctl.Inspect(set.PidFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case status.PID == 0:
				fmt.Fprintf(out, "Daemon is not running (no pid file at %s)\n", set.PidFile)
			case status.Running:
				fmt.Fprintf(out, "Daemon is running (pid %d, lock held: %t)\n", status.PID, status.Locked)
			default:
				fmt.Fprintf(out, "Daemon is not running (stale pid %d in %s)\n", status.PID, set.PidFile)
			}
			return nil
		},
	}
}
