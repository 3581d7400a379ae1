// Package cli implements the clausesense command line.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services holds the driving ports the commands call.
type Services struct {
	Ingest    driving.IngestService
	Documents driving.DocumentService
	Reports   driving.ReportService
	Retrieval driving.RetrievalService
	Index     driving.IndexService
	Settings  driving.SettingsService

	// Metrics serves Prometheus metrics for the serve command.
	Metrics http.Handler

	// MaxUploadBytes bounds HTTP uploads.
	MaxUploadBytes int64

	// ServerAddr is the configured default for serve.
	ServerAddr string

	// Close releases storage and caches.
	Close func() error
}

// Options are the global flags handed to the bootstrap function.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Bootstrap builds the services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	ingestService    driving.IngestService
	documentService  driving.DocumentService
	reportService    driving.ReportService
	retrievalService driving.RetrievalService
	indexService     driving.IndexService
	settingsService  driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "clausesense",
	Short: "Contract clause indexing and risk review",
	Long: `ClauseSense splits vendor contracts into clauses, indexes them for
semantic search and assesses each contract against a playbook of risk rules.
Every finding cites the clause it rests on.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.clausesense)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	services = s
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	documentService = s.Documents
	reportService = s.Reports
	retrievalService = s.Retrieval
	indexService = s.Index
	settingsService = s.Settings
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if services != nil && services.Close != nil {
		if cerr := services.Close(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
	}
	logger.Sync()
	return err
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if services != nil || bootstrap == nil || !needsServices(cmd) {
		return nil
	}
	s, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func needsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return false
	}
	return true
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
