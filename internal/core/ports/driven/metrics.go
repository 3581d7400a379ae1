package driven

import "time"

// MetricsRecorder receives pipeline measurements.
type MetricsRecorder interface {
	// DocumentIngested counts an ingest attempt by outcome ("ok", "extraction", ...).
	DocumentIngested(outcome string)

	// ClausesIndexed counts clauses inserted into the library.
	ClausesIndexed(n int)

	// SearchPerformed counts a retrieval query and its result size.
	SearchPerformed(results int)

	// FindingEmitted counts a finding by severity.
	FindingEmitted(severity string)

	// RuleWarning counts a skipped rule.
	RuleWarning(ruleID string)

	// ObserveStage records the latency of a pipeline stage.
	ObserveStage(stage string, d time.Duration)
}
