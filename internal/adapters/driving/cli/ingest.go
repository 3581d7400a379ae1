package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

var (
	ingestVendor string
	ingestTitle  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest contracts into the clause library",
	Long: `Extracts text from each file, splits it into clauses, classifies them and
indexes them for search. Several files are processed concurrently.

Supported formats: plain text, Markdown, HTML and DOCX.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestVendor, "vendor", "", "vendor the contracts belong to (required)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (single file only)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestVendor == "" {
		return errors.New("--vendor is required")
	}
	if ingestTitle != "" && len(args) > 1 {
		return errors.New("--title applies to a single file")
	}

	reqs := make([]driving.IngestRequest, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		reqs = append(reqs, driving.IngestRequest{
			Vendor:   ingestVendor,
			Title:    ingestTitle,
			Filename: path,
			Data:     data,
		})
	}

	ctx := commandContext(cmd)
	if len(reqs) == 1 {
		res, err := ingestService.Ingest(ctx, reqs[0])
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", args[0], err)
		}
		printIngested(cmd, res)
		return nil
	}

	failed := 0
	for i, res := range ingestService.IngestBatch(ctx, reqs) {
		if res.Err != nil {
			failed++
			cmd.Printf("  %s: FAILED: %v\n", args[i], res.Err)
			continue
		}
		printIngested(cmd, &res)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(reqs))
	}
	return nil
}

func printIngested(cmd *cobra.Command, res *driving.IngestResult) {
	cmd.Printf("Ingested %q (%s): %d clauses\n", res.Document.Title, res.Document.ID, res.Clauses)
}
