package cmd

import (
	"github.com/huangsam/commitclock/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path...]",
	Short: "Start the commitclock MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents bin commits, find the most
active slots and list timezone offsets via standard tools.

The flags of this invocation become the defaults of every tool call.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
