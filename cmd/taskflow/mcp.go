package main

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/taskflowhq/taskflow-cli/internal/api"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server over stdio",
	Long: `Run an MCP server over stdio.

Exposes the signed-in user's tasks as tools (create_task, list_tasks,
update_task, toggle_task, delete_task) so an LLM host can manage them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, store, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := requireSession(store); err != nil {
			return err
		}

		stdio := server.NewStdioServer(api.NewMCPServer(client))
		if err := stdio.Listen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
