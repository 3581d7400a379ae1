package domain

import "strings"

// ConditionKind tags a rule condition variant.
type ConditionKind string

// Condition kinds.
const (
	// ConditionLexical matches patterns against one clause's own text.
	ConditionLexical ConditionKind = "lexical"

	// ConditionSimilarity matches clauses of the same document that are
	// semantically close to a risky exemplar.
	ConditionSimilarity ConditionKind = "similarity"

	// ConditionPair correlates two clause types across a whole document.
	ConditionPair ConditionKind = "pair"
)

// Condition is the tagged variant evaluated by a rule.
type Condition interface {
	Kind() ConditionKind
}

// LexicalCondition fires when Require matches and Absent does not.
//
// When NumberBelow is positive, Require must have a capture group holding a
// number; the rule fires only if that number is below NumberBelow. The cited
// evidence is the Require match.
type LexicalCondition struct {
	Require     string  `toml:"require"`
	Absent      string  `toml:"absent"`
	NumberBelow float64 `toml:"number_below"`
}

// Kind implements Condition.
func (LexicalCondition) Kind() ConditionKind { return ConditionLexical }

// SimilarityCondition fires for clauses whose similarity to Exemplar is at
// least Threshold. The evidence carries the similarity score.
type SimilarityCondition struct {
	Exemplar  string  `toml:"exemplar"`
	Threshold float64 `toml:"threshold"`

	// Anchor optionally narrows the quoted span inside the matched clause.
	// Without it the whole first sentence is cited.
	Anchor string `toml:"anchor"`
}

// Kind implements Condition.
func (SimilarityCondition) Kind() ConditionKind { return ConditionSimilarity }

// PairCondition fires when the document has a Present clause and no Missing clause.
type PairCondition struct {
	Present ClauseType `toml:"present"`
	Missing ClauseType `toml:"missing"`
}

// Kind implements Condition.
func (PairCondition) Kind() ConditionKind { return ConditionPair }

// Rule is one declarative entry in the risk catalog.
type Rule struct {
	ID    string
	Title string

	// AppliesTo restricts the rule to clause types. Empty means every type.
	AppliesTo []ClauseType

	Condition Condition
	Severity  Severity

	// Rationale is a template. {title}, {type}, {value} and {quote}
	// are substituted when the rule fires.
	Rationale string

	Recommendation string
}

// Applies reports whether the rule considers clauses of the given type.
func (r *Rule) Applies(t ClauseType) bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	for _, a := range r.AppliesTo {
		if a == t {
			return true
		}
	}
	return false
}

// RenderRationale fills the rationale template.
func (r *Rule) RenderRationale(c *Clause, quote, value string) string {
	title := c.Title
	if title == "" {
		title = "untitled clause"
	}
	return strings.NewReplacer(
		"{title}", title,
		"{type}", string(c.Type),
		"{value}", value,
		"{quote}", quote,
	).Replace(r.Rationale)
}
