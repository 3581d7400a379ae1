package domain

import "strings"

// DefaultTopK is used when a search asks for zero or fewer results.
const DefaultTopK = 5

// MaxTopK bounds a single search.
const MaxTopK = 100

// SearchFilter restricts retrieval candidates before ranking.
// Zero values mean "no restriction".
type SearchFilter struct {
	// DocumentIDs restricts to specific documents.
	DocumentIDs []string `json:"document_ids,omitempty"`

	// Vendor restricts to one vendor (case-insensitive).
	Vendor string `json:"vendor,omitempty"`

	// ClauseTypes restricts to the listed types.
	ClauseTypes []ClauseType `json:"clause_types,omitempty"`

	// MinScore drops results below this similarity.
	MinScore *float64 `json:"min_score,omitempty"`
}

// Matches reports whether a clause owned by a vendor passes the metadata filter.
// MinScore is applied after scoring and is not checked here.
func (f SearchFilter) Matches(c *Clause, vendor string) bool {
	if len(f.DocumentIDs) > 0 && !containsString(f.DocumentIDs, c.DocumentID) {
		return false
	}
	if f.Vendor != "" && !strings.EqualFold(strings.TrimSpace(f.Vendor), vendor) {
		return false
	}
	if len(f.ClauseTypes) > 0 {
		found := false
		for _, t := range f.ClauseTypes {
			if t == c.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ScoredClause is a single retrieval hit.
type ScoredClause struct {
	// Clause is the matched clause.
	Clause Clause `json:"clause"`

	// Vendor and DocumentTitle are copied from the owning document.
	Vendor        string `json:"vendor"`
	DocumentTitle string `json:"document_title"`

	// Score is the cosine similarity in [-1, 1].
	Score float64 `json:"score"`
}

// NormaliseTopK clamps a requested result count to [1, MaxTopK].
func NormaliseTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}
