package domain

import "time"

// KeyTerms holds deterministic extractions from the contract text.
type KeyTerms struct {
	Parties []string `json:"parties,omitempty"`
	Dates   []string `json:"dates,omitempty"`
	Amounts []string `json:"amounts,omitempty"`
}

// Report is the assembled risk assessment for one document.
type Report struct {
	DocumentID string `json:"document_id"`
	Vendor     string `json:"vendor"`
	Title      string `json:"title"`
	Playbook   string `json:"playbook"`

	Findings []RiskFinding `json:"findings"`
	Score    RiskScore     `json:"score"`

	// Warnings lists rules that failed and were skipped.
	Warnings []RuleEvaluationWarning `json:"warnings,omitempty"`

	// Summary and Negotiation are LLM prose. Empty when no LLM is configured.
	Summary     string `json:"summary,omitempty"`
	Negotiation string `json:"negotiation,omitempty"`

	KeyTerms KeyTerms `json:"key_terms"`

	// Notes carries non-fatal stage failures (LLM unavailable, truncated evidence).
	Notes []string `json:"notes,omitempty"`

	EmbeddingModel string    `json:"embedding_model"`
	LLMModel       string    `json:"llm_model,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Answer is a grounded response to a question about one document.
type Answer struct {
	DocumentID string         `json:"document_id"`
	Question   string         `json:"question"`
	Text       string         `json:"answer"`
	Sources    []ScoredClause `json:"sources"`
}
