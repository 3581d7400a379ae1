package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/clausesense/internal/adapters/driving/mcp"
	"github.com/custodia-labs/clausesense/internal/core/domain"
)

var (
	serveAddr  string
	serveNoMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the JSON API under /v1, Prometheus metrics on /metrics and the
MCP streamable HTTP endpoint on /mcp.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, "+domain.DefaultServerAddr+")")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP endpoint")
	rootCmd.AddCommand(serveCmd)
}

func newHTTPServer() (*httpapi.Server, error) {
	opts := httpapi.Options{}
	if services != nil {
		opts.Metrics = services.Metrics
		opts.MaxUploadBytes = services.MaxUploadBytes
	}
	if !serveNoMCP {
		server, err := mcp.NewServer(mcpPorts())
		if err != nil {
			return nil, err
		}
		opts.MCP = server.Handler()
	}

	return httpapi.NewServer(&httpapi.Ports{
		Ingest:    ingestService,
		Documents: documentService,
		Reports:   reportService,
		Retrieval: retrievalService,
		Index:     indexService,
	}, opts)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || retrievalService == nil {
		return errors.New("services not configured")
	}

	server, err := newHTTPServer()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	addr := serveAddr
	if addr == "" && services != nil {
		addr = services.ServerAddr
	}
	if addr == "" {
		addr = domain.DefaultServerAddr
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("ClauseSense API listening on http://%s\n", addr)
	return server.Run(ctx, addr)
}
