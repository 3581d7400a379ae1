// Package segmentation turns extracted contract pages into ordered,
// classified clauses.
//
// Pages are validated and normalised, then run through a pipeline of
// ClauseProcessors (structure, then bound) built from a Registry, and each
// resulting span is classified lexically. Clause spans are byte ranges of
// the normalised text; they never overlap and are returned in order.
package segmentation
