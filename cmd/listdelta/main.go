// Package main provides the entry point for the listdelta CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/cmd/listdelta/commands"
	"github.com/Sumatoshi-tech/listdelta/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "listdelta",
		Short: "listdelta - change events for observable lists",
		Long: `listdelta records list mutations as compact change events.

Commands:
  replay    Run a mutation script and print the events it publishes
  inspect   Print the contents of an event dump
  diff      Describe the change between two line files as one event
  bench     Compare the block list and the tree delta store
  mcp       Serve replay and diff as MCP tools`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.BindFlags(rootCmd)

	rootCmd.AddCommand(commands.NewReplayCommand(app))
	rootCmd.AddCommand(commands.NewInspectCommand(app))
	rootCmd.AddCommand(commands.NewDiffCommand(app))
	rootCmd.AddCommand(commands.NewBenchCommand(app))
	rootCmd.AddCommand(commands.NewMCPCommand(app))
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "listdelta %s\n", version.String())
		},
	}
}
