package driving

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// IngestRequest describes one uploaded contract.
type IngestRequest struct {
	Vendor   string
	Title    string
	Filename string
	Data     []byte
}

// IngestResult reports the outcome of ingesting one contract.
type IngestResult struct {
	Document *domain.Document

	// Clauses is the number of clauses indexed.
	Clauses int

	// Err is set for failed documents in batch ingestion.
	Err error
}

// IngestService runs the extract, segment and index pipeline.
type IngestService interface {
	// Ingest processes one contract. Extraction and segmentation failures
	// leave no library entry and carry the document id.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// IngestPages processes text that was extracted elsewhere.
	IngestPages(ctx context.Context, vendor, title string, pages []string) (*IngestResult, error)

	// IngestBatch processes contracts concurrently. Results keep request order.
	IngestBatch(ctx context.Context, reqs []IngestRequest) []IngestResult
}
