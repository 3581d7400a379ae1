package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/adapters/driving/watch"
)

var (
	watchVendor   string
	watchDebounce time.Duration
	watchScan     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest contracts dropped into an inbox directory",
	Long: `Watches a directory and ingests each new or rewritten .txt or .html file
once writes have settled. Every file is filed under the given vendor, and a
rewritten file replaces the document ingested from it before.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchVendor, "vendor", "", "vendor for ingested contracts (required)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a file is ingested")
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "also ingest files already in the directory")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if watchVendor == "" {
		return errors.New("--vendor is required")
	}

	events := make(chan watch.Event, 16)
	opts := []watch.Option{watch.WithDebounce(watchDebounce), watch.WithEvents(events)}
	if watchScan {
		opts = append(opts, watch.WithScanExisting())
	}
	var docs watch.Documents
	if documentService != nil {
		docs = documentService
	}
	w := watch.New(args[0], watchVendor, ingestService, docs, opts...)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-events:
				if e.Err != nil {
					cmd.Printf("  %s: FAILED: %v\n", e.Path, e.Err)
					continue
				}
				printIngested(cmd, e.Result)
				for _, id := range e.Replaced {
					cmd.Printf("  replaced earlier version %s\n", id)
				}
			}
		}
	}()

	cmd.Printf("Watching %s for %s contracts (Ctrl+C to stop)\n", args[0], watchVendor)
	return w.Run(ctx)
}
