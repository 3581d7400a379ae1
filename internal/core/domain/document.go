package domain

import (
	"strings"
	"time"
)

// Document represents one uploaded contract.
// Documents are immutable once ingested and are removed only by purge.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// Vendor is the counterparty named at upload time.
	Vendor string `json:"vendor"`

	// Title is the human-readable title (defaults to the file name).
	Title string `json:"title"`

	// Filename is the original file name, if known.
	Filename string `json:"filename,omitempty"`

	// Pages holds the extracted text of each page, in order.
	Pages []string `json:"pages,omitempty"`

	// OCRConfidence holds an optional per-page confidence in [0, 1].
	OCRConfidence []float64 `json:"ocr_confidence,omitempty"`

	// ClauseCount is the number of clauses produced by segmentation.
	ClauseCount int `json:"clause_count"`

	// IngestedAt is when the document was ingested.
	IngestedAt time.Time `json:"ingested_at"`
}

// CharCount returns the total number of characters across all pages.
func (d *Document) CharCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p)
	}
	return n
}

// IsEmpty reports whether every page is blank.
func (d *Document) IsEmpty() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// Extraction is the output of the text extraction collaborator.
type Extraction struct {
	// Pages is the raw text of each page, in order.
	Pages []string

	// OCRConfidence is optional, one entry per page when present.
	OCRConfidence []float64

	// MIMEType is the content type the extractor handled.
	MIMEType string

	// Title is the document title found in the payload, if any.
	Title string
}

// VendorSummary aggregates documents by vendor.
type VendorSummary struct {
	Vendor        string    `json:"vendor"`
	DocumentCount int       `json:"document_count"`
	LastIngested  time.Time `json:"last_ingested"`
}
