// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The clause engine lives here: ClauseLibrary holds the in-memory index,
// Indexer keeps it in step with the ClauseStore, RetrievalService ranks
// clauses, Evaluator applies the rule catalog and ReportService assembles
// the result.
package services
