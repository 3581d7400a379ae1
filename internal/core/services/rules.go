package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// Rule identifiers of the built-in catalog.
const (
	RuleAutoRenewalNoNotice   = "AR-001"
	RuleEvergreenTerms        = "AR-002"
	RuleUncappedLiability     = "LC-001"
	RuleUnlimitedLiability    = "LC-002"
	RuleLowLiabilityCap       = "LC-003"
	RuleTerminationConvenient = "TM-001"
	RuleOneSidedIndemnity     = "IN-001"
	RuleShortPaymentTerms     = "PT-001"
	RuleNoPrivacyLaw          = "DP-001"
	RuleNonCompete            = "NC-001"
	RuleVendorOwnsIP          = "IP-001"
	RuleAsIsWarranty          = "WA-001"
	RuleGoverningLaw          = "GL-001"
)

// BaseRules returns the rules every playbook starts from.
//
//nolint:lll // Patterns and rationale templates read better unwrapped.
func BaseRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:        RuleAutoRenewalNoNotice,
			Title:     "Auto-renewal without a notice period",
			Condition: domain.PairCondition{Present: domain.ClauseAutoRenewal, Missing: domain.ClauseNoticePeriod},
			Severity:  domain.SeverityCritical,
			Rationale: "{title} renews the contract automatically and no clause sets a notice period for opting out.",
			Recommendation: "Require written notice of renewal 60-90 days in advance and a right to terminate at renewal without penalty.",
		},
		{
			ID:        RuleEvergreenTerms,
			Title:     "Evergreen renewal terms",
			AppliesTo: []domain.ClauseType{domain.ClauseAutoRenewal, domain.ClauseTermination},
			Condition: domain.LexicalCondition{
				Require: `(?i)\b(?:successive\s+(?:[\w-]+\s+){0,3}?(?:terms?|periods?)|evergreen|unless\s+(?:earlier\s+)?terminated)\b`,
			},
			Severity:       domain.SeverityMedium,
			Rationale:      "{title} rolls over indefinitely (\"{quote}\").",
			Recommendation: "Limit renewals to one term or make renewal require mutual written agreement.",
		},
		{
			ID:        RuleUncappedLiability,
			Title:     "Liability clause without a numeric cap",
			AppliesTo: []domain.ClauseType{domain.ClauseLiabilityCap},
			Condition: domain.LexicalCondition{
				Require: `(?i)\b(?:limitation\s+of\s+liability|aggregate\s+liability|liabilit(?:y|ies))\b`,
				Absent:  `(?i)(?:[$€£]\s?\d|\b\d[\d,.]*\s*(?:usd|eur|gbp|dollars)\b|\bfees?\s+(?:paid|payable)\b|\bamounts?\s+(?:paid|payable)\b|\(\d+\)\s*months?\b|\b\d+\s*months?\b|\b\d+\s*(?:x|times)\b)`,
			},
			Severity:       domain.SeverityHigh,
			Rationale:      "{title} discusses liability but sets no monetary cap (\"{quote}\").",
			Recommendation: "Cap each party's aggregate liability at no less than the fees paid in the preceding 12 months.",
		},
		{
			ID:        RuleUnlimitedLiability,
			Title:     "Unlimited liability",
			AppliesTo: []domain.ClauseType{domain.ClauseLiabilityCap, domain.ClauseIndemnification},
			Condition: domain.LexicalCondition{
				Require: `(?i)\bunlimited\s+liability\b|\bliability\s+(?:shall|will)\s+(?:be\s+)?unlimited\b|\bwithout\s+(?:any\s+)?limit(?:ation)?\s+(?:of|on|to)\s+(?:its\s+|their\s+)?liability\b|\bnot\s+be\s+subject\s+to\s+any\s+(?:cap|limitation)\b`,
			},
			Severity:       domain.SeverityHigh,
			Rationale:      "{title} leaves liability unlimited: \"{quote}\".",
			Recommendation: "Replace unlimited liability with a cap; carve out only confidentiality and IP infringement if needed.",
		},
		{
			ID:        RuleTerminationConvenient,
			Title:     "Vendor may terminate for convenience",
			AppliesTo: []domain.ClauseType{domain.ClauseTermination},
			Condition: domain.SimilarityCondition{
				Exemplar: "Vendor may terminate this Agreement at any time for convenience, for any reason or no reason, upon notice to Customer.",
				Anchor:   `(?i)[^.;]*\bterminat\w*[^.;]*\bconvenience\b[^.;]*|[^.;]*\bconvenience\b[^.;]*\bterminat\w*[^.;]*`,
			},
			Severity:       domain.SeverityHigh,
			Rationale:      "{title} reads like a vendor right to end the contract at will: \"{quote}\".",
			Recommendation: "Make termination for convenience mutual or customer-only, with a refund of prepaid fees.",
		},
		{
			ID:        RuleOneSidedIndemnity,
			Title:     "One-sided customer indemnity",
			AppliesTo: []domain.ClauseType{domain.ClauseIndemnification},
			Condition: domain.LexicalCondition{
				Require: `(?i)\b(?:customer|client|licensee)\s+(?:shall|will|agrees\s+to)\s+(?:\w+,?\s+){0,3}?(?:indemnify|hold\s+harmless)\b`,
				Absent:  `(?i)\b(?:vendor|provider|supplier|licensor|company)\s+(?:shall|will|agrees\s+to)\s+(?:\w+,?\s+){0,3}?indemnify\b|\beach\s+party\s+(?:shall|will|agrees\s+to)\s+(?:\w+,?\s+){0,3}?indemnify\b|\bmutual(?:ly)?\b`,
			},
			Severity:       domain.SeverityHigh,
			Rationale:      "{title} obliges only the customer to indemnify: \"{quote}\".",
			Recommendation: "Make indemnification mutual, with the vendor covering third-party IP claims and its own breaches.",
		},
		{
			ID:        RuleShortPaymentTerms,
			Title:     "Payment due in fewer than 30 days",
			AppliesTo: []domain.ClauseType{domain.ClausePaymentTerms},
			Condition: domain.LexicalCondition{
				Require:     `(?i)\b(?:due|payable|paid)\s+(?:with)?in\s+(?:[a-z-]+\s+)?\(?(\d{1,3})\)?\s+(?:calendar\s+|business\s+)?days\b|\bnet\s+(\d{1,3})\b`,
				NumberBelow: 30,
			},
			Severity:       domain.SeverityMedium,
			Rationale:      "{title} requires payment within {value} days: \"{quote}\".",
			Recommendation: "Negotiate net 30 or longer payment terms.",
		},
		{
			ID:        RuleNoPrivacyLaw,
			Title:     "Data protection without GDPR or CCPA reference",
			AppliesTo: []domain.ClauseType{domain.ClauseDataProtection},
			Condition: domain.LexicalCondition{
				Require: `(?i)\bpersonal\s+(?:data|information)\b|\bdata\s+(?:protection|privacy|security)\b|\bcustomer\s+data\b`,
				Absent:  `(?i)\bGDPR\b|\bCCPA\b|\bgeneral\s+data\s+protection\s+regulation\b|\bcalifornia\s+consumer\s+privacy\b`,
			},
			Severity:       domain.SeverityMedium,
			Rationale:      "{title} handles data (\"{quote}\") without committing to GDPR or CCPA.",
			Recommendation: "Add explicit GDPR/CCPA compliance and a data processing addendum.",
		},
		{
			ID:        RuleNonCompete,
			Title:     "Non-compete restriction",
			AppliesTo: []domain.ClauseType{domain.ClauseNonCompete},
			Condition: domain.LexicalCondition{
				Require: `(?i)\bnon-?compet(?:e|ition)\b|\b(?:shall|will)\s+not\b[^.;]{0,80}?\bcompet\w*`,
			},
			Severity:       domain.SeverityHigh,
			Rationale:      "{title} restricts competition: \"{quote}\".",
			Recommendation: "Strike the non-compete or narrow it to a short period and a specific product line.",
		},
		{
			ID:        RuleVendorOwnsIP,
			Title:     "Vendor owns deliverables or customer IP",
			AppliesTo: []domain.ClauseType{domain.ClauseIntellectualProp},
			Condition: domain.SimilarityCondition{
				Exemplar: "All intellectual property rights in the deliverables, work product and any customer materials shall be owned exclusively by Vendor.",
				Anchor:   `(?i)[^.;]*\b(?:vendor|provider|supplier|licensor)\b[^.;]*\b(?:own|owns|owned|ownership|retains?)\b[^.;]*|[^.;]*\b(?:owned|own|owns)\b[^.;]*\b(?:vendor|provider|supplier|licensor)\b[^.;]*`,
			},
			Severity:       domain.SeverityHigh,
			Rationale:      "{title} may vest ownership of work product in the vendor: \"{quote}\".",
			Recommendation: "Ensure the customer owns deliverables and its own data; grant the vendor only a limited licence.",
		},
		{
			ID:        RuleAsIsWarranty,
			Title:     "As-is warranty disclaimer",
			AppliesTo: []domain.ClauseType{domain.ClauseWarranty},
			Condition: domain.LexicalCondition{
				Require: `(?i)\bas[\s-]+is\b|\bdisclaims?\s+(?:any\s+and\s+)?(?:all\s+)?(?:other\s+)?(?:express\s+or\s+implied\s+)?warrant\w*`,
			},
			Severity:       domain.SeverityMedium,
			Rationale:      "{title} disclaims warranties: \"{quote}\".",
			Recommendation: "Ask for a performance warranty and a service level agreement with credits.",
		},
	}
}

// OptInRules returns rules that run only when a playbook enables them.
//
//nolint:lll // Patterns read better unwrapped.
func OptInRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:        RuleGoverningLaw,
			Title:     "Governing law outside Delaware or New York",
			AppliesTo: []domain.ClauseType{domain.ClauseGoverningLaw},
			Condition: domain.LexicalCondition{
				Require: `(?i)\b(?:governed\s+by|governing\s+law|construed\s+in\s+accordance\s+with)\b[^.;]*`,
				Absent:  `(?i)\bdelaware\b|\bnew\s+york\b`,
			},
			Severity:       domain.SeverityLow,
			Rationale:      "{title} selects a jurisdiction other than Delaware or New York: \"{quote}\".",
			Recommendation: "Move governing law and venue to Delaware or New York.",
		},
		{
			ID:        RuleLowLiabilityCap,
			Title:     "Liability cap below three times annual fees",
			AppliesTo: []domain.ClauseType{domain.ClauseLiabilityCap},
			Condition: domain.LexicalCondition{
				Require: `(?i)[^.;]*\b(?:(?:shall|will)\s+not|not\s+to)\s+exceed\b(?:[^.;]|\.\d)*\b(?:fees|amounts|charges)\b[^.;]*|[^.;]*\b(?:limited|capped)\s+(?:to|at)\b(?:[^.;]|\.\d)*\b(?:fees|amounts|charges)\b[^.;]*`,
				Absent:  `(?i)(?:^|[^\d.])(?:[3-9]|[1-9]\d+)(?:\.\d+)?\s*(?:x|times)\b|\b(?:three|four|five|six|seven|eight|nine|ten)\s+(?:\(\d+\)\s+)?times\b`,
			},
			Severity:       domain.SeverityMedium,
			Rationale:      "{title} caps liability below three times the annual fees: \"{quote}\".",
			Recommendation: "Raise the cap to at least three times the fees paid or payable in the preceding 12 months.",
		},
	}
}

// BuiltinPlaybooks returns the standard, strict and light playbooks.
func BuiltinPlaybooks() []domain.Playbook {
	return []domain.Playbook{
		{
			Name:        domain.PlaybookStandard,
			Description: "Balanced review for a typical small business.",
		},
		{
			Name:        domain.PlaybookStrict,
			Description: "Enterprise counsel posture: flags minor deviations too.",
			Enable:      []string{RuleGoverningLaw, RuleLowLiabilityCap},
			Severities: map[string]domain.Severity{
				RuleEvergreenTerms:    domain.SeverityHigh,
				RuleLowLiabilityCap:   domain.SeverityHigh,
				RuleNoPrivacyLaw:      domain.SeverityHigh,
				RuleUncappedLiability: domain.SeverityCritical,
			},
		},
		{
			Name:        domain.PlaybookLight,
			Description: "Consultant posture: only deal-breakers matter.",
			Disable:     []string{RuleAutoRenewalNoNotice, RuleShortPaymentTerms},
			Severities: map[string]domain.Severity{
				RuleUnlimitedLiability: domain.SeverityCritical,
				RuleNonCompete:         domain.SeverityCritical,
				RuleVendorOwnsIP:       domain.SeverityCritical,
			},
		},
	}
}

// mergePlaybooks returns the built-in playbooks followed by custom ones,
// sorted by name. A custom playbook never replaces a built-in one.
func mergePlaybooks(custom []domain.Playbook) []domain.Playbook {
	out := BuiltinPlaybooks()
	seen := make(map[string]bool, len(out))
	for _, p := range out {
		seen[p.Name] = true
	}
	for _, p := range custom {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" || seen[name] {
			continue
		}
		p.Name = name
		seen[name] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// findPlaybook looks a playbook up by case-insensitive name.
func findPlaybook(playbooks []domain.Playbook, name string) (domain.Playbook, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = domain.PlaybookStandard
	}
	for _, p := range playbooks {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.Playbook{}, fmt.Errorf("%w: unknown playbook %q", domain.ErrInvalidInput, name)
}
