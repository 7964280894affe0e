package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/odagate/odagate/internal/adapters/inbound/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the odagate MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(a))
	return cmd
}

func newMCPServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start odagate MCP server (stdio)",
		Long:  "Start the odagate MCP server using stdio transport. This lets AI assistants run dry-run validations and read manifests and run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := a.newServices(true)
			if err != nil {
				return err
			}

			deps := mcpadapter.Deps{Validator: svcs.validator, Manifests: svcs.manifests, Now: a.now}
			if db, err := a.openHistory(cmd.Context()); err != nil {
				log.Warnw("run history unavailable", "err", err)
			} else {
				defer db.Close()
				deps.History = db
			}

			return server.ServeStdio(mcpadapter.NewServer(version, deps))
		},
	}
}
