// Package plaintext extracts text files, treating form feeds as page breaks.
package plaintext

import (
	"bytes"
	"context"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text documents, including pdftotext output.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/csv", "text/rtf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract splits the payload into pages at form feed characters.
// Content validation is left to the segmenter.
func (e *Extractor) Extract(_ context.Context, data []byte) (*domain.Extraction, error) {
	if data == nil {
		return nil, domain.ErrInvalidInput
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	pages := strings.Split(string(data), "\f")
	// pdftotext terminates the last page with a form feed.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	return &domain.Extraction{
		Pages:    pages,
		MIMEType: "text/plain",
	}, nil
}
