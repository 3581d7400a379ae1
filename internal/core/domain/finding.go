package domain

import (
	"fmt"
	"strings"
)

// Severity is an ordered risk level: low < medium < high < critical.
// The zero value means "no finding".
type Severity int

// Severity levels.
const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "none"
	}
}

// Weight returns the points this severity contributes to the risk sub-score.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 25
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	case "none", "":
		return SeverityNone, nil
	default:
		return SeverityNone, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Evidence cites the exact text that justifies a finding.
// Quote always equals the owning clause's Text[Start:End].
type Evidence struct {
	ClauseID string `json:"clause_id"`
	Ordinal  int    `json:"ordinal"`
	Quote    string `json:"quote"`

	// Start and End are byte offsets within the clause text.
	Start int `json:"start"`
	End   int `json:"end"`

	// Similarity is set for similarity-matched evidence.
	Similarity *float64 `json:"similarity,omitempty"`
}

// RiskFinding is the result of one rule firing on one clause or clause pair.
type RiskFinding struct {
	RuleID         string     `json:"rule_id"`
	Title          string     `json:"title"`
	Severity       Severity   `json:"severity"`
	ClauseType     ClauseType `json:"clause_type"`
	Rationale      string     `json:"rationale"`
	Recommendation string     `json:"recommendation,omitempty"`
	Evidence       []Evidence `json:"evidence"`
}

// Score levels for RiskScore.Level.
const (
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelCritical = "critical"
)

// RiskScore summarises a document's findings.
// MaxSeverity is the headline ("worst clause wins"); Points and Health rank
// documents against each other.
type RiskScore struct {
	MaxSeverity Severity         `json:"max_severity"`
	Points      int              `json:"points"`
	Health      int              `json:"health"`
	Level       string           `json:"level"`
	Counts      map[Severity]int `json:"counts"`
}

// ScoreFindings computes the RiskScore for a set of findings.
func ScoreFindings(findings []RiskFinding) RiskScore {
	score := RiskScore{Counts: make(map[Severity]int)}
	for _, f := range findings {
		score.Counts[f.Severity]++
		score.Points += f.Severity.Weight()
		if f.Severity > score.MaxSeverity {
			score.MaxSeverity = f.Severity
		}
	}
	score.Health = 100 - score.Points
	if score.Health < 0 {
		score.Health = 0
	}
	switch {
	case score.Health >= 80:
		score.Level = RiskLevelLow
	case score.Health >= 60:
		score.Level = RiskLevelMedium
	case score.Health >= 40:
		score.Level = RiskLevelHigh
	default:
		score.Level = RiskLevelCritical
	}
	return score
}
