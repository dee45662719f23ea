// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadline/handlers"
	"github.com/harperreed/leadline/services"
)

// MCPCommand starts the MCP server on stdio. Logs go to stderr so stdout
// stays a clean protocol stream.
func MCPCommand(ctx context.Context, crm *services.CRM, version string) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "leadline",
		Version: version,
	}, nil)

	handlers.Register(server, crm)

	return server.Run(ctx, &mcp.StdioTransport{})
}
