package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/listdelta/internal/mcp"
	"github.com/Sumatoshi-tech/listdelta/pkg/observability"
	"github.com/Sumatoshi-tech/listdelta/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes two tools:
  - listdelta_replay: run a mutation script and return its events
  - listdelta_diff: describe the change between two texts as one event`,
		Args: cobra.NoArgs,
	}

	cmd.RunE = app.run(observability.ModeMCP, func(cmd *cobra.Command, _ []string) error {
		srv := mcp.NewServer(mcp.ServerDeps{
			Logger:           app.Logger(),
			Tracer:           app.Providers.Tracer,
			Version:          version.Version,
			AssemblerOptions: app.AssemblerOptions(),
		})

		return srv.Run(cmd.Context())
	})

	return cmd
}
