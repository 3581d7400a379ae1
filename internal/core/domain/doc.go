// Package domain defines the core business entities for ClauseSense.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded vendor contract
//   - Clause: A classified, contiguous span of contract text
//   - EmbeddingRecord: The vector for exactly one clause
//   - Rule / Playbook: The declarative risk catalog
//   - RiskFinding / Report: Evidence-backed assessment output
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
