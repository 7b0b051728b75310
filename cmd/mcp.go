package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/rev/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets agents query and close out review sessions natively.
Configure in Claude Code with:

  {
    "mcpServers": {
      "rev": { "command": "rev", "args": ["mcp"] }
    }
  }

Available tools: rev_history, rev_get_session, rev_latest,
rev_complete_session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		return mcp.NewServer(s).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
