// Package classifier assigns clause types with an inspectable lexical matcher.
//
// Every clause type owns a list of trigger phrases. A type's confidence is
// matched / total triggers for that type, and a clause is assigned the type
// with the highest confidence (ties go to catalog order). Nothing here is
// learned, so every classification can be explained by the triggers returned.
package classifier

import (
	"regexp"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ClauseClassifier = (*Lexical)(nil)

type trigger struct {
	label string
	re    *regexp.Regexp
}

type typeTriggers struct {
	clauseType domain.ClauseType
	triggers   []trigger
}

// Lexical is a deterministic keyword/phrase classifier.
type Lexical struct {
	catalog []typeTriggers
}

// Triggers maps clause types to their trigger patterns. Keys are labels
// reported back to callers, values are case-insensitive regular expressions.
type Triggers map[domain.ClauseType][][2]string

// New creates a classifier over the built-in trigger catalog.
func New() *Lexical {
	return NewWithTriggers(DefaultTriggers())
}

// NewWithTriggers creates a classifier over a custom catalog. Types are
// considered in domain.AllClauseTypes order.
func NewWithTriggers(t Triggers) *Lexical {
	l := &Lexical{}
	for _, ct := range domain.AllClauseTypes() {
		pairs, ok := t[ct]
		if !ok || len(pairs) == 0 {
			continue
		}
		tt := typeTriggers{clauseType: ct}
		for _, p := range pairs {
			tt.triggers = append(tt.triggers, trigger{
				label: p[0],
				re:    regexp.MustCompile(`(?i)` + p[1]),
			})
		}
		l.catalog = append(l.catalog, tt)
	}
	return l
}

// Classify returns the best clause type for text, the confidence and the
// labels of the triggers that matched.
func (l *Lexical) Classify(text string) (domain.ClauseType, float64, []string) {
	best := domain.ClauseUncategorized
	bestCount := 0
	var bestTotal int
	var bestLabels []string

	for _, tt := range l.catalog {
		var labels []string
		for _, tr := range tt.triggers {
			if tr.re.MatchString(text) {
				labels = append(labels, tr.label)
			}
		}
		// Compare len(labels)/len(triggers) against bestCount/bestTotal
		// without floating point, so equal ratios keep the earlier type.
		if len(labels) > 0 && (bestCount == 0 || len(labels)*bestTotal > bestCount*len(tt.triggers)) {
			best = tt.clauseType
			bestCount = len(labels)
			bestTotal = len(tt.triggers)
			bestLabels = labels
		}
	}

	if bestCount == 0 {
		return domain.ClauseUncategorized, 0, nil
	}
	return best, float64(bestCount) / float64(bestTotal), bestLabels
}

// Matches returns the labels of every matching trigger, grouped by type.
func (l *Lexical) Matches(text string) map[domain.ClauseType][]string {
	out := make(map[domain.ClauseType][]string)
	for _, tt := range l.catalog {
		for _, tr := range tt.triggers {
			if tr.re.MatchString(text) {
				out[tt.clauseType] = append(out[tt.clauseType], tr.label)
			}
		}
	}
	return out
}

// DefaultTriggers returns the built-in trigger catalog.
func DefaultTriggers() Triggers {
	return Triggers{
		domain.ClauseAutoRenewal: {
			{"automatically renew", `\bautomatic(?:ally)?\s+renew`},
			{"auto-renew", `\bauto-?renew`},
			{"successive terms", `\bsuccessive\b`},
			{"renewal term", `\brenewal\s+(?:term|period)s?\b`},
			{"evergreen", `\bevergreen\b`},
			{"unless terminated", `\bunless\s+(?:earlier\s+)?terminated\b`},
		},
		domain.ClauseNoticePeriod: {
			{"notice period", `\bnotice\s+period\b`},
			{"days' notice", `\bdays'?\s*(?:prior\s+)?(?:written\s+)?notice\b`},
			{"written notice", `\bwritten\s+notice\b`},
			{"notice of non-renewal", `\bnotice\s+of\s+(?:non-?renewal|termination)\b`},
			{"notices", `^\s*(?:\d+(?:\.\d+)*\.?\s+)?notices?\b`},
			{"deemed given", `\bdeemed\s+(?:given|received|delivered)\b`},
		},
		domain.ClauseTermination: {
			{"terminate", `\bterminat(?:e|ion)\b`},
			{"for convenience", `\bfor\s+(?:its\s+)?convenience\b`},
			{"for cause", `\bfor\s+cause\b`},
			{"material breach", `\bmaterial(?:ly)?\s+breach`},
			{"effect of termination", `\b(?:effect|upon)\s+(?:of\s+)?(?:termination|expiration)\b`},
		},
		domain.ClauseLiabilityCap: {
			{"liability", `\bliabilit(?:y|ies)\b`},
			{"shall not exceed", `\b(?:shall|will)\s+not\s+exceed\b`},
			{"limitation of liability", `\blimitation\s+of\s+liability\b`},
			{"aggregate liability", `\baggregate\s+liability\b`},
			{"in no event", `\bin\s+no\s+event\b`},
			{"consequential damages", `\b(?:consequential|indirect|incidental|punitive)\s+damages\b`},
			{"cap", `\b(?:liability\s+)?cap\b`},
		},
		domain.ClauseIndemnification: {
			{"indemnify", `\bindemnif(?:y|ies|ication)\b`},
			{"hold harmless", `\bhold\s+harmless\b`},
			{"defend", `\bdefend\b`},
			{"third-party claims", `\bthird[- ]party\s+claims?\b`},
		},
		domain.ClauseGoverningLaw: {
			{"governing law", `\bgoverning\s+law\b`},
			{"governed by the laws", `\bgoverned\s+by\b.*\blaws?\b`},
			{"jurisdiction", `\bjurisdiction\b`},
			{"venue", `\bvenue\b`},
		},
		domain.ClausePaymentTerms: {
			{"payment", `\bpayments?\b`},
			{"invoice", `\binvoice[sd]?\b`},
			{"fees", `\bfees?\b`},
			{"due within", `\bdue\s+(?:within|upon)\b`},
			{"net terms", `\bnet\s+\d+\b`},
			{"late payment", `\blate\s+(?:payment|fee|charge)s?\b`},
		},
		domain.ClauseConfidentiality: {
			{"confidential information", `\bconfidential\s+information\b`},
			{"confidentiality", `\bconfidentiality\b`},
			{"non-disclosure", `\bnon-?disclosure\b`},
			{"disclose", `\bdisclos(?:e|ure)\b`},
		},
		domain.ClauseDataProtection: {
			{"personal data", `\bpersonal\s+(?:data|information)\b`},
			{"data protection", `\bdata\s+(?:protection|privacy|security)\b`},
			{"GDPR", `\bGDPR\b|\bgeneral\s+data\s+protection\s+regulation\b`},
			{"CCPA", `\bCCPA\b|\bcalifornia\s+consumer\s+privacy\b`},
			{"data breach", `\b(?:data|security)\s+(?:breach|incident)\b`},
			{"processor", `\bsub-?processors?\b|\bdata\s+processing\b`},
		},
		domain.ClauseWarranty: {
			{"warrants", `\bwarrant(?:s|y|ies)\b`},
			{"as is", `\bas[\s-]+is\b`},
			{"merchantability", `\bmerchantability\b`},
			{"fitness for a particular purpose", `\bfitness\s+for\s+a\s+particular\s+purpose\b`},
			{"service level", `\bservice\s+levels?\b|\bSLA\b|\buptime\b`},
		},
		domain.ClauseIntellectualProp: {
			{"intellectual property", `\bintellectual\s+property\b`},
			{"ownership", `\b(?:own|owns|ownership)\b`},
			{"work product", `\bwork\s+product\b|\bdeliverables\b`},
			{"license", `\blicen[cs]e[sd]?\b`},
			{"assigns", `\bassign(?:s|ment)?\b.*\b(?:right|title|interest)\b`},
		},
		domain.ClauseNonCompete: {
			{"non-compete", `\bnon-?compet(?:e|ition)\b`},
			{"shall not compete", `\b(?:shall|will)\s+not\b.*\bcompet`},
			{"non-solicit", `\bnon-?solicit(?:ation)?\b|\bsolicit\b`},
			{"exclusivity", `\bexclusiv(?:e|ity)\b`},
		},
		domain.ClauseInsurance: {
			{"insurance", `\binsurance\b`},
			{"coverage", `\bcoverage\b`},
			{"insured", `\b(?:additional\s+)?insured\b`},
			{"policy limits", `\bper\s+occurrence\b|\bpolicy\s+limits?\b`},
		},
	}
}
