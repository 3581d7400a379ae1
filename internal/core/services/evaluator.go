package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// MaxQuoteChars bounds quotes cited without an explicit match.
const MaxQuoteChars = 400

// minSentenceChars skips section numbers like "12." when citing a first sentence.
const minSentenceChars = 40

// clauseSearcher is the slice of the retrieval engine similarity rules need.
type clauseSearcher interface {
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.ScoredClause, error)
}

// EvaluationResult is the outcome of evaluating one document.
type EvaluationResult struct {
	Findings []domain.RiskFinding
	Score    domain.RiskScore
	Warnings []domain.RuleEvaluationWarning
}

// Evaluator runs a rule set over the clauses of one document and binds every
// finding to the exact clause text that triggered it.
type Evaluator struct {
	searcher  clauseSearcher
	rules     []domain.Rule
	threshold float64
	metrics   driven.MetricsRecorder
}

// NewEvaluator creates an evaluator. threshold is the similarity bar for
// rules that do not set their own. searcher may be nil, in which case
// similarity rules are skipped with a warning.
func NewEvaluator(searcher clauseSearcher, rules []domain.Rule, threshold float64) *Evaluator {
	return &Evaluator{
		searcher:  searcher,
		rules:     rules,
		threshold: threshold,
	}
}

// SetMetrics attaches a metrics recorder.
func (e *Evaluator) SetMetrics(m driven.MetricsRecorder) {
	e.metrics = m
}

// Evaluate runs every rule. A failing rule becomes a warning and the other
// rules still run; only cancellation aborts evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, doc *domain.Document, clauses []domain.Clause) (EvaluationResult, error) {
	if doc == nil || doc.ID == "" {
		return EvaluationResult{}, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	result := EvaluationResult{Findings: []domain.RiskFinding{}}
	if len(clauses) == 0 {
		result.Score = domain.ScoreFindings(nil)
		return result, nil
	}

	start := time.Now()
	byID := make(map[string]*domain.Clause, len(clauses))
	for i := range clauses {
		byID[clauses[i].ID] = &clauses[i]
	}

	seen := make(map[string]bool)
	for i := range e.rules {
		if err := ctx.Err(); err != nil {
			return EvaluationResult{}, err
		}
		rule := &e.rules[i]

		findings, err := e.runRule(ctx, rule, doc, clauses)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return EvaluationResult{}, ctxErr
			}
			w := domain.RuleEvaluationWarning{RuleID: rule.ID, Reason: err.Error()}
			result.Warnings = append(result.Warnings, w)
			logger.L().Warn("rule skipped",
				zap.String("rule_id", rule.ID),
				zap.String("document_id", doc.ID),
				zap.Error(err))
			if e.metrics != nil {
				e.metrics.RuleWarning(rule.ID)
			}
			continue
		}

		for _, f := range findings {
			f.Evidence = bindEvidence(f.Evidence, byID)
			if len(f.Evidence) == 0 {
				logger.Debug("rule %s: finding without valid evidence suppressed", rule.ID)
				continue
			}
			key := f.RuleID + "\x00" + f.Evidence[0].ClauseID
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Findings = append(result.Findings, f)
		}
	}

	sortFindings(result.Findings)
	result.Score = domain.ScoreFindings(result.Findings)

	if e.metrics != nil {
		for _, f := range result.Findings {
			e.metrics.FindingEmitted(f.Severity.String())
		}
		e.metrics.ObserveStage("evaluate", time.Since(start))
	}
	logger.Debug("evaluated %d rules on %s: %d findings, %d warnings",
		len(e.rules), doc.ID, len(result.Findings), len(result.Warnings))
	return result, nil
}

// runRule evaluates one rule, turning a panic into an error.
func (e *Evaluator) runRule(ctx context.Context, rule *domain.Rule, doc *domain.Document, clauses []domain.Clause) (findings []domain.RiskFinding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch c := rule.Condition.(type) {
	case domain.LexicalCondition:
		return e.evalLexical(rule, c, clauses)
	case *domain.LexicalCondition:
		if c == nil {
			return nil, errors.New("nil lexical condition")
		}
		return e.evalLexical(rule, *c, clauses)
	case domain.SimilarityCondition:
		return e.evalSimilarity(ctx, rule, c, doc, clauses)
	case *domain.SimilarityCondition:
		if c == nil {
			return nil, errors.New("nil similarity condition")
		}
		return e.evalSimilarity(ctx, rule, *c, doc, clauses)
	case domain.PairCondition:
		return e.evalPair(rule, c, clauses)
	case *domain.PairCondition:
		if c == nil {
			return nil, errors.New("nil pair condition")
		}
		return e.evalPair(rule, *c, clauses)
	case nil:
		return nil, errors.New("rule has no condition")
	default:
		return nil, fmt.Errorf("unsupported condition %T", rule.Condition)
	}
}

func (e *Evaluator) evalLexical(rule *domain.Rule, cond domain.LexicalCondition, clauses []domain.Clause) ([]domain.RiskFinding, error) {
	if cond.Require == "" {
		return nil, errors.New("lexical condition has no require pattern")
	}
	require, err := compilePattern(cond.Require)
	if err != nil {
		return nil, err
	}
	var absent *regexp.Regexp
	if cond.Absent != "" {
		if absent, err = compilePattern(cond.Absent); err != nil {
			return nil, err
		}
	}
	if cond.NumberBelow > 0 && require.NumSubexp() == 0 {
		return nil, errors.New("number_below needs a capture group in require")
	}

	var out []domain.RiskFinding
	for i := range clauses {
		c := &clauses[i]
		if !rule.Applies(c.Type) {
			continue
		}
		if absent != nil && absent.MatchString(c.Text) {
			continue
		}
		start, end, value, ok := lexicalMatch(require, c.Text, cond.NumberBelow)
		if !ok {
			continue
		}
		out = append(out, newFinding(rule, c, start, end, value, nil))
	}
	return out, nil
}

// lexicalMatch returns the first match of re in text, or with a positive
// below the first match whose captured number is under it.
func lexicalMatch(re *regexp.Regexp, text string, below float64) (int, int, string, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if loc[1] <= loc[0] {
			continue
		}
		if below <= 0 {
			return loc[0], loc[1], "", true
		}
		raw := firstGroup(text, loc)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil || n >= below {
			continue
		}
		return loc[0], loc[1], raw, true
	}
	return 0, 0, "", false
}

func firstGroup(text string, loc []int) string {
	for g := 2; g+1 < len(loc); g += 2 {
		if loc[g] >= 0 && loc[g+1] > loc[g] {
			return text[loc[g]:loc[g+1]]
		}
	}
	return ""
}

func (e *Evaluator) evalSimilarity(
	ctx context.Context, rule *domain.Rule, cond domain.SimilarityCondition, doc *domain.Document, clauses []domain.Clause,
) ([]domain.RiskFinding, error) {
	if strings.TrimSpace(cond.Exemplar) == "" {
		return nil, errors.New("similarity condition has no exemplar")
	}
	if e.searcher == nil {
		return nil, errors.New("similarity search unavailable")
	}
	var anchor *regexp.Regexp
	if cond.Anchor != "" {
		var err error
		if anchor, err = compilePattern(cond.Anchor); err != nil {
			return nil, err
		}
	}
	threshold := cond.Threshold
	if threshold <= 0 {
		threshold = e.threshold
	}

	filter := domain.SearchFilter{
		DocumentIDs: []string{doc.ID},
		ClauseTypes: rule.AppliesTo,
		MinScore:    &threshold,
	}
	hits, err := e.searcher.Search(ctx, cond.Exemplar, domain.MaxTopK, filter)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	byID := make(map[string]*domain.Clause, len(clauses))
	for i := range clauses {
		byID[clauses[i].ID] = &clauses[i]
	}

	var out []domain.RiskFinding
	for _, hit := range hits {
		c, ok := byID[hit.Clause.ID]
		if !ok || !rule.Applies(c.Type) {
			continue
		}
		start, end := -1, -1
		if anchor != nil {
			if loc := anchor.FindStringIndex(c.Text); loc != nil {
				start, end = trimSpan(c.Text, loc[0], loc[1])
			}
		}
		if start < 0 || end <= start {
			start, end = leadSentence(c.Text)
		}
		score := hit.Score
		out = append(out, newFinding(rule, c, start, end, "", &score))
	}
	return out, nil
}

func (e *Evaluator) evalPair(rule *domain.Rule, cond domain.PairCondition, clauses []domain.Clause) ([]domain.RiskFinding, error) {
	if cond.Present == "" || cond.Missing == "" {
		return nil, errors.New("pair condition needs present and missing types")
	}
	for i := range clauses {
		if clauses[i].Type == cond.Missing {
			return nil, nil
		}
	}
	var out []domain.RiskFinding
	for i := range clauses {
		c := &clauses[i]
		if c.Type != cond.Present {
			continue
		}
		start, end := leadSentence(c.Text)
		out = append(out, newFinding(rule, c, start, end, "", nil))
	}
	return out, nil
}

func newFinding(rule *domain.Rule, c *domain.Clause, start, end int, value string, similarity *float64) domain.RiskFinding {
	quote := c.Text[start:end]
	return domain.RiskFinding{
		RuleID:         rule.ID,
		Title:          rule.Title,
		Severity:       rule.Severity,
		ClauseType:     c.Type,
		Rationale:      rule.RenderRationale(c, quote, value),
		Recommendation: rule.Recommendation,
		Evidence: []domain.Evidence{{
			ClauseID:   c.ID,
			Ordinal:    c.Ordinal,
			Quote:      quote,
			Start:      start,
			End:        end,
			Similarity: similarity,
		}},
	}
}

// bindEvidence keeps evidence whose quote is exactly the cited clause span.
func bindEvidence(evidence []domain.Evidence, byID map[string]*domain.Clause) []domain.Evidence {
	out := evidence[:0]
	for _, ev := range evidence {
		c, ok := byID[ev.ClauseID]
		if !ok {
			continue
		}
		if ev.Start < 0 || ev.End <= ev.Start || ev.End > len(c.Text) {
			continue
		}
		if c.Text[ev.Start:ev.End] != ev.Quote {
			continue
		}
		ev.Ordinal = c.Ordinal
		out = append(out, ev)
	}
	return out
}

// sortFindings orders by severity desc, rule id, then first evidence ordinal.
func sortFindings(findings []domain.RiskFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Evidence[0].Ordinal < b.Evidence[0].Ordinal
	})
}

var sentenceStop = regexp.MustCompile(`[.!?;](?:["')\]]*)(?:\s|$)`)

// leadSentence returns the span of the first sentence long enough to be
// meaningful, bounded by MaxQuoteChars.
func leadSentence(text string) (int, int) {
	start, end := trimSpan(text, 0, len(text))
	if start >= end {
		return 0, len(text)
	}
	for _, loc := range sentenceStop.FindAllStringIndex(text[start:end], -1) {
		stop := start + loc[0] + 1
		if stop-start >= minSentenceChars {
			end = stop
			break
		}
	}
	if end-start > MaxQuoteChars {
		cut := start + MaxQuoteChars
		for cut > start && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if ws := strings.LastIndexAny(text[start:cut], " \n\t"); ws > MaxQuoteChars/2 {
			cut = start + ws
		}
		end = cut
	}
	return trimSpan(text, start, end)
}

// trimSpan narrows [start, end) to exclude surrounding whitespace.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && isSpaceByte(text[start]) {
		start++
	}
	for end > start && isSpaceByte(text[end-1]) {
		end--
	}
	return start, end
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

var patternCache sync.Map // pattern -> *regexp.Regexp

// compilePattern compiles and caches rule patterns.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}
