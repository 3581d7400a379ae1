package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown extractor, provider or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrTooLarge indicates an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("payload too large")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summary, negotiation drafts and Q&A are disabled; scoring is unaffected.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Engine errors. The typed errors below unwrap to these.

	// ErrSegmentation indicates malformed input reached the segmenter.
	ErrSegmentation = errors.New("segmentation failed")

	// ErrExtraction indicates the text extraction collaborator failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrIndexMismatch indicates the index holds vectors from another embedding model.
	ErrIndexMismatch = errors.New("embedding model mismatch")

	// ErrIndexConsistency indicates an insert or remove could not commit atomically.
	ErrIndexConsistency = errors.New("index consistency")

	// ErrRuleEvaluation marks a rule that failed and was skipped.
	ErrRuleEvaluation = errors.New("rule evaluation failed")
)

// SegmentationError reports malformed input reaching the segmenter.
type SegmentationError struct {
	DocumentID string
	Reason     string
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segment document %s: %s", e.DocumentID, e.Reason)
}

func (e *SegmentationError) Unwrap() error { return ErrSegmentation }

// ExtractionError wraps an extraction collaborator failure unchanged.
type ExtractionError struct {
	DocumentID string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract document %s: %v", e.DocumentID, e.Err)
}

// Unwrap exposes both the sentinel and the collaborator's own error.
func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Err} }

// IndexMismatchError is returned when the configured embedding model differs
// from the model that produced vectors already held in the index.
type IndexMismatchError struct {
	Configured string
	Found      string
}

func (e *IndexMismatchError) Error() string {
	return fmt.Sprintf("index built with model %q, configured model is %q (run reindex)", e.Found, e.Configured)
}

func (e *IndexMismatchError) Unwrap() error { return ErrIndexMismatch }

// IndexConsistencyError reports a failed atomic insert or remove.
// The index keeps its prior state when this is returned.
type IndexConsistencyError struct {
	DocumentID string
	Op         string
	Err        error
}

func (e *IndexConsistencyError) Error() string {
	return fmt.Sprintf("%s document %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *IndexConsistencyError) Unwrap() []error { return []error{ErrIndexConsistency, e.Err} }

// RuleEvaluationWarning records a rule that failed and was excluded from output.
// Warnings are returned alongside findings and never abort evaluation.
type RuleEvaluationWarning struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

func (w RuleEvaluationWarning) Error() string {
	return fmt.Sprintf("rule %s skipped: %s", w.RuleID, w.Reason)
}

func (w RuleEvaluationWarning) Unwrap() error { return ErrRuleEvaluation }

// TimeoutError reports a collaborator call that exceeded its deadline.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }
