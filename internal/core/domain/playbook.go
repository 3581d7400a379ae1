package domain

import "sort"

// Built-in playbook names.
const (
	PlaybookStandard = "standard"
	PlaybookStrict   = "strict"
	PlaybookLight    = "light"
)

// Playbook selects and re-grades rules from the catalog for a review posture.
type Playbook struct {
	Name        string
	Description string

	// Enable lists opt-in rules that are off in the base catalog.
	Enable []string

	// Disable lists rules to drop.
	Disable []string

	// Severities overrides the severity of individual rules.
	Severities map[string]Severity

	// Extra rules are appended after the catalog.
	Extra []Rule
}

// Apply returns the rules active under this playbook, sorted by id.
// optIn holds rules that only run when a playbook enables them.
func (p *Playbook) Apply(base, optIn []Rule) []Rule {
	disabled := make(map[string]bool, len(p.Disable))
	for _, id := range p.Disable {
		disabled[id] = true
	}
	enabled := make(map[string]bool, len(p.Enable))
	for _, id := range p.Enable {
		enabled[id] = true
	}

	var out []Rule
	add := func(r Rule) {
		if disabled[r.ID] {
			return
		}
		if sev, ok := p.Severities[r.ID]; ok {
			r.Severity = sev
		}
		out = append(out, r)
	}
	for _, r := range base {
		add(r)
	}
	for _, r := range optIn {
		if enabled[r.ID] {
			add(r)
		}
	}
	for _, r := range p.Extra {
		add(r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
