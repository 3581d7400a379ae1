package driven

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// Segment is an in-progress clause candidate flowing through the segmentation
// pipeline. Offsets refer to the normalised document text.
type Segment struct {
	Title   string
	Text    string
	Context string
	Start   int
	End     int
	Page    int
}

// SegmentationInput is the normalised document handed between stages.
type SegmentationInput struct {
	DocumentID string

	// Text is the normalised document text.
	Text string

	// PageStarts holds the offset at which each non-empty page begins in Text.
	PageStarts []int

	// PageNumbers holds the one-based page number for each PageStarts entry.
	PageNumbers []int
}

// PageAt returns the page number containing the offset.
func (in *SegmentationInput) PageAt(offset int) int {
	page := 1
	for i, start := range in.PageStarts {
		if start > offset {
			break
		}
		page = in.PageNumbers[i]
	}
	return page
}

// ClauseProcessor is one stage of the segmentation pipeline
// (e.g., structural split, size bounding).
type ClauseProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the previous stage's segments (nil for the first stage)
	// and returns the next set.
	Process(ctx context.Context, in *SegmentationInput, segments []Segment) ([]Segment, error)
}

// Segmenter turns page text into ordered, classified clauses.
type Segmenter interface {
	// Segment returns the clauses of one document. Malformed input fails with
	// *domain.SegmentationError; empty input yields no clauses and no error.
	Segment(ctx context.Context, documentID string, pages []string) ([]domain.Clause, error)
}

// ClauseClassifier assigns a clause type to a span of text.
type ClauseClassifier interface {
	// Classify returns the type, the confidence in [0, 1] and the matched triggers.
	Classify(text string) (domain.ClauseType, float64, []string)
}
