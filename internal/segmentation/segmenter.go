package segmentation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
	"github.com/custodia-labs/clausesense/internal/segmentation/classifier"
)

// Verify interface compliance.
var _ driven.Segmenter = (*Segmenter)(nil)

// Config holds the tunable segmentation parameters.
type Config struct {
	// MaxChars bounds clause length.
	MaxChars int

	// Overlap is the fraction of a split piece carried as the next piece's context.
	Overlap float64
}

// Segmenter validates and normalises page text, runs the processor pipeline
// and classifies the resulting spans.
type Segmenter struct {
	pipeline   *Pipeline
	classifier driven.ClauseClassifier
}

// New creates a segmenter from an explicit pipeline and classifier.
func New(pipeline *Pipeline, c driven.ClauseClassifier) *Segmenter {
	if c == nil {
		c = classifier.New()
	}
	return &Segmenter{pipeline: pipeline, classifier: c}
}

// NewDefault builds the standard structure → bound pipeline through the
// processor registry.
func NewDefault(cfg Config) (*Segmenter, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	structure, err := r.Build(ProcessorStructure, nil)
	if err != nil {
		return nil, err
	}
	bound, err := r.Build(ProcessorBound, map[string]any{
		"max_chars": cfg.MaxChars,
		"overlap":   cfg.Overlap,
	})
	if err != nil {
		return nil, err
	}
	return New(NewPipeline(structure, bound), classifier.New()), nil
}

// Segment returns the ordered clauses of one document.
func (s *Segmenter) Segment(ctx context.Context, documentID string, pages []string) ([]domain.Clause, error) {
	for i, page := range pages {
		if reason := validatePage(page); reason != "" {
			return nil, &domain.SegmentationError{
				DocumentID: documentID,
				Reason:     fmt.Sprintf("page %d: %s", i+1, reason),
			}
		}
	}

	text, starts, numbers := Normalize(pages)
	if text == "" {
		logger.Debug("segment %s: no text, zero clauses", documentID)
		return nil, nil
	}

	in := &driven.SegmentationInput{
		DocumentID:  documentID,
		Text:        text,
		PageStarts:  starts,
		PageNumbers: numbers,
	}
	segments, err := s.pipeline.Process(ctx, in)
	if err != nil {
		return nil, err
	}

	clauses := make([]domain.Clause, 0, len(segments))
	prevEnd := 0
	for _, seg := range segments {
		if seg.Start < prevEnd || seg.End <= seg.Start {
			return nil, &domain.SegmentationError{
				DocumentID: documentID,
				Reason:     fmt.Sprintf("overlapping span [%d,%d) after offset %d", seg.Start, seg.End, prevEnd),
			}
		}
		prevEnd = seg.End

		ct, confidence, triggers := s.classifier.Classify(seg.Text)
		ordinal := len(clauses)
		clauses = append(clauses, domain.Clause{
			ID:         ClauseID(documentID, ordinal),
			DocumentID: documentID,
			Ordinal:    ordinal,
			Title:      seg.Title,
			Text:       seg.Text,
			Context:    seg.Context,
			Start:      seg.Start,
			End:        seg.End,
			Page:       in.PageAt(seg.Start),
			Type:       ct,
			Confidence: confidence,
			Triggers:   triggers,
		})
	}

	logger.Debug("segment %s: %d clauses from %d chars", documentID, len(clauses), len(text))
	return clauses, nil
}

// ClauseID derives the stable id of the clause at ordinal in a document.
// Re-segmenting the same document reproduces the same ids.
func ClauseID(documentID string, ordinal int) string {
	ns, err := uuid.Parse(documentID)
	if err != nil {
		ns = uuid.NewSHA1(uuid.NameSpaceOID, []byte(documentID))
	}
	return uuid.NewSHA1(ns, []byte(fmt.Sprintf("clause:%d", ordinal))).String()
}
