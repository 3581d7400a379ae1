package driven

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// Extractor turns uploaded bytes into ordered page text.
// Each extractor handles specific MIME types. Extraction failures are the
// extractor's responsibility and halt a document before segmentation.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Extract returns the pages of the document.
	Extract(ctx context.Context, data []byte) (*domain.Extraction, error)
}

// ExtractorRegistry selects the appropriate extractor for an upload.
type ExtractorRegistry interface {
	// Extract detects the MIME type from the file name and content, then
	// dispatches to the best extractor. Oversized payloads fail with ErrTooLarge.
	Extract(ctx context.Context, filename string, data []byte) (*domain.Extraction, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}
