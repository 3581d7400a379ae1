package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// MaxKeyTerms bounds each key-term list.
const MaxKeyTerms = 10

// partyScanChars limits the party search to the contract preamble.
const partyScanChars = 3000

//nolint:lll // Patterns read better unwrapped.
var (
	amountPattern = regexp.MustCompile(`(?:US\$|USD\s?|[$€£])\s?\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?(?:\s?(?:million|thousand|billion|[kKmM]\b))?|\b\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?\s?(?:USD|EUR|GBP|dollars|euros)\b`)

	datePattern = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b|\b\d{1,2}(?:st|nd|rd|th)?\s+(?:January|February|March|April|May|June|July|August|September|October|November|December),?\s+\d{4}\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)

	// betweenParties captures "between Acme Corp. (...) and Beta LLC (...)".
	betweenParties = regexp.MustCompile(`\b[Bb]etween\s+([A-Z][\w&.,' -]{1,80}?)\s*(?:\(|,\s+an?\s|,\s+with\b)[\s\S]{0,300}?\band\s+([A-Z][\w&.,' -]{1,80}?)\s*(?:\(|,\s+an?\s|,\s+with\b|\.|$)`)

	// definedParty captures defined roles such as (the "Customer").
	definedParty = regexp.MustCompile(`\(\s*(?:the\s+|hereinafter\s+)?["“]([A-Z][\w ]{1,30})["”]\s*\)`)
)

// ExtractKeyTerms pulls parties, dates and monetary amounts out of the
// clause text. Results keep first-seen order without duplicates.
func ExtractKeyTerms(clauses []domain.Clause) domain.KeyTerms {
	var terms domain.KeyTerms

	var preamble strings.Builder
	for i := range clauses {
		text := clauses[i].Text
		if preamble.Len() < partyScanChars {
			preamble.WriteString(text)
			preamble.WriteString("\n")
		}
		for _, m := range datePattern.FindAllString(text, -1) {
			terms.Dates = appendUnique(terms.Dates, m)
		}
		for _, m := range amountPattern.FindAllString(text, -1) {
			terms.Amounts = appendUnique(terms.Amounts, strings.TrimSpace(m))
		}
	}

	head := preamble.String()
	if m := betweenParties.FindStringSubmatch(head); m != nil {
		terms.Parties = appendUnique(terms.Parties, cleanParty(m[1]))
		terms.Parties = appendUnique(terms.Parties, cleanParty(m[2]))
	}
	for _, m := range definedParty.FindAllStringSubmatch(head, -1) {
		terms.Parties = appendUnique(terms.Parties, cleanParty(m[1]))
	}
	return terms
}

func cleanParty(s string) string {
	return strings.Trim(strings.TrimSpace(s), ",.")
}

func appendUnique(list []string, s string) []string {
	if s == "" || len(list) >= MaxKeyTerms {
		return list
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return list
		}
	}
	return append(list, s)
}
