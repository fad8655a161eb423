package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ppclient",
		Short:         "Headless PPChat client: socket relay and local message notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newEventsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the chat server and deliver notifications until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to yaml config (env PPCLIENT vars and defaults otherwise)")
	return cmd
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List the socket events this client speaks",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, n := range eventNames() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		},
	}
}
