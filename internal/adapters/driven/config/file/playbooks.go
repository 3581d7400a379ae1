package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure PlaybookSource implements the interface.
var _ driven.PlaybookSource = (*PlaybookSource)(nil)

// playbookFile is the on-disk shape of a custom playbook:
//
//	name = "procurement"
//	description = "Stricter payment terms"
//	enable = ["GL-001"]
//	disable = ["WA-001"]
//
//	[severities]
//	"PT-001" = "high"
//
//	[[rules]]
//	id = "PT-900"
//	title = "Payment due within 45 days"
//	applies_to = ["payment-terms"]
//	severity = "medium"
//	rationale = "{title} requires payment within {value} days."
//	[rules.lexical]
//	require = '(?i)within\s+(\d+)\s+days'
//	number_below = 45
type playbookFile struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Enable      []string          `toml:"enable"`
	Disable     []string          `toml:"disable"`
	Severities  map[string]string `toml:"severities"`
	Rules       []ruleFile        `toml:"rules"`
}

type ruleFile struct {
	ID             string                   `toml:"id"`
	Title          string                   `toml:"title"`
	AppliesTo      []string                 `toml:"applies_to"`
	Severity       string                   `toml:"severity"`
	Rationale      string                   `toml:"rationale"`
	Recommendation string                   `toml:"recommendation"`
	Lexical        *domain.LexicalCondition `toml:"lexical"`
}

// PlaybookSource reads custom playbooks from *.toml files in a directory.
// Custom rules are lexical only; similarity and pair rules are built in.
type PlaybookSource struct {
	dir string
}

// NewPlaybookSource creates a source reading dir. If dir is empty,
// <DefaultConfigDir>/playbooks is used.
func NewPlaybookSource(dir string) (*PlaybookSource, error) {
	if dir == "" {
		base, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "playbooks")
	}
	return &PlaybookSource{dir: dir}, nil
}

// Dir returns the playbook directory.
func (s *PlaybookSource) Dir() string {
	return s.dir
}

// LoadPlaybooks decodes every *.toml file, sorted by file name.
// A missing directory yields no playbooks.
func (s *PlaybookSource) LoadPlaybooks() ([]domain.Playbook, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read playbook directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	playbooks := make([]domain.Playbook, 0, len(names))
	for _, name := range names {
		pb, err := s.loadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("playbook %s: %w", name, err)
		}
		playbooks = append(playbooks, *pb)
	}
	return playbooks, nil
}

func (s *PlaybookSource) loadFile(path string) (*domain.Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f playbookFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f.toDomain()
}

func (f *playbookFile) toDomain() (*domain.Playbook, error) {
	pb := &domain.Playbook{
		Name:        strings.ToLower(strings.TrimSpace(f.Name)),
		Description: f.Description,
		Enable:      f.Enable,
		Disable:     f.Disable,
		Severities:  make(map[string]domain.Severity, len(f.Severities)),
	}
	for id, name := range f.Severities {
		sev, err := domain.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("severity for %s: %w", id, err)
		}
		pb.Severities[id] = sev
	}
	for i := range f.Rules {
		rule, err := f.Rules[i].toDomain()
		if err != nil {
			return nil, err
		}
		pb.Extra = append(pb.Extra, *rule)
	}
	return pb, nil
}

func (r *ruleFile) toDomain() (*domain.Rule, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("%w: rule without id", domain.ErrInvalidInput)
	}
	if r.Lexical == nil || r.Lexical.Require == "" {
		return nil, fmt.Errorf("%w: rule %s needs [rules.lexical] require", domain.ErrInvalidInput, r.ID)
	}
	re, err := regexp.Compile(r.Lexical.Require)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s require: %v", domain.ErrInvalidInput, r.ID, err)
	}
	if r.Lexical.NumberBelow > 0 && re.NumSubexp() == 0 {
		return nil, fmt.Errorf("%w: rule %s number_below needs a capture group", domain.ErrInvalidInput, r.ID)
	}
	if r.Lexical.Absent != "" {
		if _, err := regexp.Compile(r.Lexical.Absent); err != nil {
			return nil, fmt.Errorf("%w: rule %s absent: %v", domain.ErrInvalidInput, r.ID, err)
		}
	}
	sev, err := domain.ParseSeverity(r.Severity)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if sev == domain.SeverityNone {
		sev = domain.SeverityMedium
	}

	rule := &domain.Rule{
		ID:             r.ID,
		Title:          r.Title,
		Condition:      *r.Lexical,
		Severity:       sev,
		Rationale:      r.Rationale,
		Recommendation: r.Recommendation,
	}
	if rule.Rationale == "" {
		rule.Rationale = r.Title + ": {quote}"
	}
	for _, name := range r.AppliesTo {
		t, ok := domain.ParseClauseType(name)
		if !ok {
			return nil, fmt.Errorf("%w: rule %s applies to unknown type %q", domain.ErrInvalidInput, r.ID, name)
		}
		rule.AppliesTo = append(rule.AppliesTo, t)
	}
	return rule, nil
}
