package domain

import "strings"

// ClauseType classifies a clause by its legal subject.
type ClauseType string

// Known clause types, in classifier priority order.
const (
	ClauseAutoRenewal      ClauseType = "auto-renewal"
	ClauseNoticePeriod     ClauseType = "notice-period"
	ClauseTermination      ClauseType = "termination"
	ClauseLiabilityCap     ClauseType = "liability-cap"
	ClauseIndemnification  ClauseType = "indemnification"
	ClauseGoverningLaw     ClauseType = "governing-law"
	ClausePaymentTerms     ClauseType = "payment-terms"
	ClauseConfidentiality  ClauseType = "confidentiality"
	ClauseDataProtection   ClauseType = "data-protection"
	ClauseWarranty         ClauseType = "warranty"
	ClauseIntellectualProp ClauseType = "intellectual-property"
	ClauseNonCompete       ClauseType = "non-compete"
	ClauseInsurance        ClauseType = "insurance"
	ClauseUncategorized    ClauseType = "uncategorized"
)

// AllClauseTypes returns every clause type in classifier priority order.
func AllClauseTypes() []ClauseType {
	return []ClauseType{
		ClauseAutoRenewal,
		ClauseNoticePeriod,
		ClauseTermination,
		ClauseLiabilityCap,
		ClauseIndemnification,
		ClauseGoverningLaw,
		ClausePaymentTerms,
		ClauseConfidentiality,
		ClauseDataProtection,
		ClauseWarranty,
		ClauseIntellectualProp,
		ClauseNonCompete,
		ClauseInsurance,
		ClauseUncategorized,
	}
}

// IsValid returns true if the clause type is recognised.
func (t ClauseType) IsValid() bool {
	for _, k := range AllClauseTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (t ClauseType) String() string {
	return string(t)
}

// ParseClauseType parses a clause type, accepting underscores and any case.
func ParseClauseType(s string) (ClauseType, bool) {
	t := ClauseType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	return t, t.IsValid()
}

// Clause is a contiguous, classified span of one document's normalised text.
// Spans within a document never overlap and are ordered by Start.
type Clause struct {
	// ID is stable for the lifetime of the owning document.
	ID string `json:"id"`

	// DocumentID is the owning document.
	DocumentID string `json:"document_id"`

	// Ordinal is the zero-based position within the document.
	Ordinal int `json:"ordinal"`

	// Title is the section heading, "(cont.)" suffixed for continuations.
	Title string `json:"title,omitempty"`

	// Text is the raw clause text. Evidence quotes are substrings of Text.
	Text string `json:"text"`

	// Context is the lead-in carried over from the previous window when a
	// section had to be split by size. It is embedded but never quoted.
	Context string `json:"context,omitempty"`

	// Start and End are byte offsets into the normalised document text.
	Start int `json:"start"`
	End   int `json:"end"`

	// Page is the one-based page on which the clause starts.
	Page int `json:"page"`

	Type       ClauseType `json:"type"`
	Confidence float64    `json:"confidence"`

	// Triggers lists the phrases that drove classification.
	Triggers []string `json:"triggers,omitempty"`
}

// EmbeddingText returns the text used to compute the clause vector.
func (c *Clause) EmbeddingText() string {
	if c.Context == "" {
		return c.Text
	}
	return c.Context + " " + c.Text
}

// EmbeddingRecord is the vector representation of exactly one clause.
type EmbeddingRecord struct {
	ClauseID string    `json:"clause_id"`
	Vector   []float32 `json:"vector"`
	Model    string    `json:"model"`
}

// IndexedDocument is a document with its clauses and vectors, the unit the
// clause library inserts and removes atomically.
type IndexedDocument struct {
	Document   Document
	Clauses    []Clause
	Embeddings []EmbeddingRecord
}

// LibraryStats describes the contents of the clause library.
type LibraryStats struct {
	Documents int `json:"documents"`
	Clauses   int `json:"clauses"`

	// Vectors counts embedding records per model id.
	Vectors map[string]int `json:"vectors"`

	// Model is the configured embedding model.
	Model string `json:"model"`
}
