package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// mockSearcher returns canned hits for similarity rules.
type mockSearcher struct {
	hits    []domain.ScoredClause
	err     error
	filters []domain.SearchFilter
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ int, filter domain.SearchFilter) ([]domain.ScoredClause, error) {
	m.filters = append(m.filters, filter)
	return m.hits, m.err
}

func TestEvaluator_SampleContract(t *testing.T) {
	e := newEngine(t)
	doc, clauses := e.ingest(t, "d1", "Acme", sampleContract)

	evaluator := NewEvaluator(e.retrieval, BaseRules(), domain.DefaultSimilarityThreshold)
	metrics := newMockMetrics()
	evaluator.SetMetrics(metrics)

	result, err := evaluator.Evaluate(context.Background(), doc, clauses)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	ids := make([]string, len(result.Findings))
	for i, f := range result.Findings {
		ids[i] = f.RuleID
	}
	assert.Equal(t, []string{RuleAutoRenewalNoNotice, RuleEvergreenTerms, RuleShortPaymentTerms}, ids)

	ar := result.Findings[0]
	assert.Equal(t, domain.SeverityCritical, ar.Severity)
	assert.Equal(t, 0, ar.Evidence[0].Ordinal)

	pt := result.Findings[2]
	assert.Equal(t, domain.SeverityMedium, pt.Severity)
	assert.Contains(t, pt.Rationale, "within 15 days")
	assert.Contains(t, pt.Evidence[0].Quote, "(15) days")

	// Every quote is an exact substring of the cited clause.
	byID := map[string]domain.Clause{}
	for _, c := range clauses {
		byID[c.ID] = c
	}
	for _, f := range result.Findings {
		for _, ev := range f.Evidence {
			c := byID[ev.ClauseID]
			assert.Equal(t, c.Text[ev.Start:ev.End], ev.Quote)
			assert.NotEmpty(t, ev.Quote)
			assert.LessOrEqual(t, len(ev.Quote), MaxQuoteChars)
		}
	}

	assert.Equal(t, 35, result.Score.Points)
	assert.Equal(t, 65, result.Score.Health)
	assert.Equal(t, domain.RiskLevelMedium, result.Score.Level)
	assert.Equal(t, domain.SeverityCritical, result.Score.MaxSeverity)
	assert.Equal(t, 1, metrics.findings["critical"])
	assert.Equal(t, 2, metrics.findings["medium"])
}

func TestEvaluator_NoticeClauseSuppressesAutoRenewal(t *testing.T) {
	e := newEngine(t)
	text := sampleContract + "\n\n4. Notices. Either party may opt out of renewal by giving sixty (60) days' prior written notice."
	doc, clauses := e.ingest(t, "d1", "Acme", text)

	result, err := NewEvaluator(e.retrieval, BaseRules(), domain.DefaultSimilarityThreshold).
		Evaluate(context.Background(), doc, clauses)
	require.NoError(t, err)
	for _, f := range result.Findings {
		assert.NotEqual(t, RuleAutoRenewalNoNotice, f.RuleID)
	}
}

func TestEvaluator_Deterministic(t *testing.T) {
	e := newEngine(t)
	doc, clauses := e.ingest(t, "d1", "Acme", sampleContract)
	evaluator := NewEvaluator(e.retrieval, BaseRules(), domain.DefaultSimilarityThreshold)

	first, err := evaluator.Evaluate(context.Background(), doc, clauses)
	require.NoError(t, err)
	second, err := evaluator.Evaluate(context.Background(), doc, clauses)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluator_NoClauses(t *testing.T) {
	evaluator := NewEvaluator(nil, BaseRules(), 0.5)
	result, err := evaluator.Evaluate(context.Background(), &domain.Document{ID: "d1"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Findings)
	assert.Empty(t, result.Findings)
	assert.Equal(t, 100, result.Score.Health)
	assert.Equal(t, domain.RiskLevelLow, result.Score.Level)
}

func TestEvaluator_InvalidDocument(t *testing.T) {
	_, err := NewEvaluator(nil, BaseRules(), 0.5).Evaluate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEvaluator_BrokenRuleBecomesWarning(t *testing.T) {
	clauses := testClauses("d1", "Payment is due within ten (10) days of invoice.")
	clauses[0].Type = domain.ClausePaymentTerms

	rules := []domain.Rule{
		{ID: "BAD-1", Condition: domain.LexicalCondition{Require: "("}, Severity: domain.SeverityHigh},
		{ID: "BAD-2", Condition: nil, Severity: domain.SeverityHigh},
		{ID: "BAD-3", Condition: domain.LexicalCondition{Require: "due", NumberBelow: 30}, Severity: domain.SeverityHigh},
		{ID: "BAD-4", Condition: domain.SimilarityCondition{Exemplar: "anything"}, Severity: domain.SeverityHigh},
		{ID: "OK-1", Condition: domain.LexicalCondition{Require: `(?i)due within`}, Severity: domain.SeverityLow, Rationale: "{quote}"},
	}
	metrics := newMockMetrics()
	evaluator := NewEvaluator(nil, rules, 0.5)
	evaluator.SetMetrics(metrics)

	result, err := evaluator.Evaluate(context.Background(), &domain.Document{ID: "d1"}, clauses)
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "OK-1", result.Findings[0].RuleID)
	assert.Equal(t, "due within", result.Findings[0].Rationale)

	warned := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		warned[i] = w.RuleID
		assert.NotEmpty(t, w.Reason)
	}
	assert.Equal(t, []string{"BAD-1", "BAD-2", "BAD-3", "BAD-4"}, warned)
	assert.Equal(t, warned, metrics.warnings)
}

func TestEvaluator_SearchFailureBecomesWarning(t *testing.T) {
	clauses := testClauses("d1", "Vendor may terminate for convenience at any time.")
	clauses[0].Type = domain.ClauseTermination
	searcher := &mockSearcher{err: errors.New("index offline")}

	rules := []domain.Rule{
		{ID: RuleTerminationConvenient, AppliesTo: []domain.ClauseType{domain.ClauseTermination},
			Condition: domain.SimilarityCondition{Exemplar: "terminate for convenience"}, Severity: domain.SeverityHigh},
	}
	result, err := NewEvaluator(searcher, rules, 0.5).Evaluate(context.Background(), &domain.Document{ID: "d1"}, clauses)
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Reason, "index offline")
}

func TestEvaluator_Similarity(t *testing.T) {
	text := "Either party may end the arrangement. Vendor may terminate this Agreement for convenience upon thirty days notice."
	clauses := testClauses("d1", text)
	clauses[0].Type = domain.ClauseTermination

	searcher := &mockSearcher{hits: []domain.ScoredClause{
		{Clause: clauses[0], Score: 0.81},
		{Clause: domain.Clause{ID: "foreign", DocumentID: "d2"}, Score: 0.9},
	}}
	rule := BaseRules()[4]
	require.Equal(t, RuleTerminationConvenient, rule.ID)

	result, err := NewEvaluator(searcher, []domain.Rule{rule}, 0.6).
		Evaluate(context.Background(), &domain.Document{ID: "d1"}, clauses)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)

	ev := result.Findings[0].Evidence[0]
	assert.Equal(t, "Vendor may terminate this Agreement for convenience upon thirty days notice", ev.Quote)
	require.NotNil(t, ev.Similarity)
	assert.InDelta(t, 0.81, *ev.Similarity, 1e-9)

	require.Len(t, searcher.filters, 1)
	f := searcher.filters[0]
	assert.Equal(t, []string{"d1"}, f.DocumentIDs)
	assert.Equal(t, []domain.ClauseType{domain.ClauseTermination}, f.ClauseTypes)
	require.NotNil(t, f.MinScore)
	assert.InDelta(t, 0.6, *f.MinScore, 1e-9)
}

func TestEvaluator_DedupAndOrder(t *testing.T) {
	clauses := testClauses("d1",
		"The software is provided as is.",
		"Customer shall indemnify and hold harmless Vendor against all claims.",
	)
	clauses[0].Type = domain.ClauseWarranty
	clauses[1].Type = domain.ClauseIndemnification

	rules := []domain.Rule{
		{ID: "B-1", Condition: domain.LexicalCondition{Require: `(?i)as is`}, Severity: domain.SeverityMedium},
		{ID: "A-1", Condition: domain.LexicalCondition{Require: `(?i)indemnify`}, Severity: domain.SeverityMedium},
		{ID: "C-1", Condition: domain.LexicalCondition{Require: `(?i)hold harmless`}, Severity: domain.SeverityCritical},
		{ID: "A-1", Condition: domain.LexicalCondition{Require: `(?i)indemnify`}, Severity: domain.SeverityMedium},
	}
	result, err := NewEvaluator(nil, rules, 0.5).Evaluate(context.Background(), &domain.Document{ID: "d1"}, clauses)
	require.NoError(t, err)

	ids := make([]string, len(result.Findings))
	for i, f := range result.Findings {
		ids[i] = f.RuleID
	}
	assert.Equal(t, []string{"C-1", "A-1", "B-1"}, ids)
}

func TestEvaluator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	clauses := testClauses("d1", "text")
	_, err := NewEvaluator(nil, BaseRules(), 0.5).Evaluate(ctx, &domain.Document{ID: "d1"}, clauses)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLeadSentence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "skips short heading sentence",
			text: "1. Term. This Agreement shall automatically renew for successive terms. More text follows.",
			want: "1. Term. This Agreement shall automatically renew for successive terms.",
		},
		{
			name: "no stop",
			text: "  provided as is  ",
			want: "provided as is",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := leadSentence(tt.text)
			assert.Equal(t, tt.want, tt.text[start:end])
		})
	}

	long := strings.Repeat("word ", 200)
	start, end := leadSentence(long)
	assert.LessOrEqual(t, end-start, MaxQuoteChars)
}

func TestLexicalMatch_NumberBelow(t *testing.T) {
	re, err := compilePattern(`net\s+(\d+)`)
	require.NoError(t, err)

	_, _, value, ok := lexicalMatch(re, "net 45, or net 15 for renewals", 30)
	require.True(t, ok)
	assert.Equal(t, "15", value)

	_, _, _, ok = lexicalMatch(re, "net 45", 30)
	assert.False(t, ok)
}
