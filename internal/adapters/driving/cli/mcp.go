package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Tools: search_clauses, assess_contract, list_documents, ask_contract.
Resources: clausesense://documents and clausesense://documents/{id}.

Examples:
  # Stdio mode (default, for Claude Desktop)
  clausesense mcp

  # HTTP mode (for MCP Inspector, remote access)
  clausesense mcp --http 127.0.0.1:8089

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "clausesense": {
        "command": "/path/to/clausesense",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func mcpPorts() *mcp.Ports {
	return &mcp.Ports{
		Retrieval: retrievalService,
		Reports:   reportService,
		Documents: documentService,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}
	return server.Run(ctx)
}
