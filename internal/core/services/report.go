package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure ReportService implements the interfaces.
var (
	_ driving.ReportService   = (*ReportService)(nil)
	_ driven.PromptStoreAware = (*ReportService)(nil)
)

// RiskQueries drive evidence gathering for the LLM summary.
var RiskQueries = []string{
	"limitation of liability and liability cap",
	"indemnity and indemnification",
	"termination for convenience and auto-renewal",
	"data privacy security and GDPR",
	"payment terms fees and pricing",
	"warranties service level agreement SLA",
	"confidentiality and non-disclosure",
	"insurance and compliance",
}

// TruncationNote marks evidence cut to fit the model context.
const TruncationNote = "[... text truncated to fit model context ...]"

// NotFoundAnswer is returned when the contract has no relevant clause.
const NotFoundAnswer = "I cannot find that information in the contract."

// Fallback prompts used when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long.
const (
	defaultSummaryPrompt = `Summarise the key terms of this contract in plain English for a small-business buyer. Use only the clauses provided. Return bullet points.

RISK FINDINGS:
%s

CLAUSES:
%s`

	defaultNegotiationPrompt = `Write a professional negotiation email to the vendor requesting changes for the risks found. Quote the cited clause text when you refer to it.

RISK FINDINGS:
%s

CITED CLAUSES:
%s`

	defaultChatSystemPrompt = `You are a contract review assistant. Answer based ONLY on the provided contract context. If the answer is not in the context, say "I cannot find that information in the contract."`
)

// ReportService assembles risk reports and answers questions about contracts.
type ReportService struct {
	library   *ClauseLibrary
	retrieval *RetrievalService
	llm       driven.LLMService
	reports   driven.ReportStore
	prompts   driven.PromptStore
	playbooks driven.PlaybookSource
	metrics   driven.MetricsRecorder

	engine     domain.EngineSettings
	llmTimeout time.Duration
	now        func() time.Time
}

// NewReportService creates a report service. llm is optional.
func NewReportService(
	library *ClauseLibrary,
	retrieval *RetrievalService,
	llm driven.LLMService,
	engine domain.EngineSettings,
	llmTimeout time.Duration,
) *ReportService {
	return &ReportService{
		library:    library,
		retrieval:  retrieval,
		llm:        llm,
		engine:     engine,
		llmTimeout: llmTimeout,
		now:        time.Now,
	}
}

// SetReportStore enables report persistence.
func (s *ReportService) SetReportStore(store driven.ReportStore) {
	s.reports = store
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *ReportService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetPlaybookSource adds user-defined playbooks.
func (s *ReportService) SetPlaybookSource(source driven.PlaybookSource) {
	s.playbooks = source
}

// SetMetrics attaches a metrics recorder.
func (s *ReportService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Assess evaluates a document and assembles its report. The report is
// returned whenever evaluation succeeded; the error then joins the
// failures of the optional stages.
func (s *ReportService) Assess(ctx context.Context, documentID string, opts driving.ReportOptions) (*domain.Report, error) {
	doc, clauses, ok := s.library.Document(documentID)
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	name := opts.Playbook
	if name == "" {
		name = s.engine.Playbook
	}
	playbook, err := findPlaybook(s.Playbooks(), name)
	if err != nil {
		return nil, err
	}

	logger.Section("Assess " + documentID)
	evaluator := NewEvaluator(s.retrieval, playbook.Apply(BaseRules(), OptInRules()), s.threshold())
	evaluator.SetMetrics(s.metrics)
	result, err := evaluator.Evaluate(ctx, &doc, clauses)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", documentID, err)
	}

	report := &domain.Report{
		DocumentID:     doc.ID,
		Vendor:         doc.Vendor,
		Title:          doc.Title,
		Playbook:       playbook.Name,
		Findings:       result.Findings,
		Score:          result.Score,
		Warnings:       result.Warnings,
		KeyTerms:       ExtractKeyTerms(clauses),
		EmbeddingModel: s.retrieval.ModelName(),
		GeneratedAt:    s.now().UTC(),
	}

	var errs []error
	switch {
	case opts.SkipLLM:
	case s.llm == nil:
		report.Notes = append(report.Notes, domain.ErrLLMUnavailable.Error()+": summary and negotiation draft skipped")
	default:
		errs = append(errs, s.writeProse(ctx, report, clauses)...)
	}

	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("save report: %w", err))
		}
	}

	logger.L().Info("report assembled",
		zap.String("document_id", doc.ID),
		zap.String("playbook", playbook.Name),
		zap.Int("findings", len(report.Findings)),
		zap.String("level", report.Score.Level))
	return report, errors.Join(errs...)
}

// writeProse fills the summary and negotiation draft. Failures are noted on
// the report and returned.
func (s *ReportService) writeProse(ctx context.Context, report *domain.Report, clauses []domain.Clause) []error {
	var errs []error
	report.LLMModel = s.llm.ModelName()
	findingsText := formatFindings(report.Findings)

	evidence, truncated, err := s.gatherEvidence(ctx, report.DocumentID)
	if err != nil {
		errs = append(errs, err)
		report.Notes = append(report.Notes, "evidence gathering failed: "+err.Error())
	}
	if truncated {
		report.Notes = append(report.Notes, fmt.Sprintf("evidence truncated to %d characters", s.evidenceMax()))
	}

	if evidence != "" {
		prompt := fmt.Sprintf(s.loadPrompt(driven.PromptSummary, defaultSummaryPrompt), findingsText, evidence)
		summary, err := s.generate(ctx, "llm summary", prompt)
		if err != nil {
			errs = append(errs, fmt.Errorf("summary: %w", err))
			report.Notes = append(report.Notes, "summary failed: "+err.Error())
		} else {
			report.Summary = summary
		}
	}

	if len(report.Findings) == 0 {
		report.Notes = append(report.Notes, "no findings: negotiation draft skipped")
		return errs
	}
	prompt := fmt.Sprintf(s.loadPrompt(driven.PromptNegotiation, defaultNegotiationPrompt),
		findingsText, citedClauses(report.Findings, clauses))
	draft, err := s.generate(ctx, "llm negotiation", prompt)
	if err != nil {
		errs = append(errs, fmt.Errorf("negotiation: %w", err))
		report.Notes = append(report.Notes, "negotiation draft failed: "+err.Error())
	} else {
		report.Negotiation = draft
	}
	return errs
}

// gatherEvidence runs the risk queries against one document and joins the
// distinct hits, capped at the configured size.
func (s *ReportService) gatherEvidence(ctx context.Context, documentID string) (string, bool, error) {
	filter := domain.SearchFilter{DocumentIDs: []string{documentID}}
	topK := s.engine.RiskTopK
	if topK <= 0 {
		topK = domain.DefaultRiskTopK
	}

	seen := make(map[string]bool)
	var b strings.Builder
	for _, q := range RiskQueries {
		hits, err := s.retrieval.Search(ctx, q, topK, filter)
		if err != nil {
			return b.String(), false, fmt.Errorf("risk query %q: %w", q, err)
		}
		for _, h := range hits {
			if seen[h.Clause.ID] {
				continue
			}
			seen[h.Clause.ID] = true
			fmt.Fprintf(&b, "[Clause %d: %s]\n%s\n\n", h.Clause.Ordinal+1, clauseLabel(&h.Clause), h.Clause.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	limit := s.evidenceMax()
	if len(text) <= limit {
		return text, false, nil
	}
	cut := limit
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut] + "\n\n" + TruncationNote, true, nil
}

// LatestReport returns the stored report for a document.
func (s *ReportService) LatestReport(ctx context.Context, documentID string) (*domain.Report, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("report %s: %w", documentID, domain.ErrNotFound)
	}
	return s.reports.GetReport(ctx, documentID)
}

// Ask answers a question using only the document's retrieved clauses.
func (s *ReportService) Ask(ctx context.Context, documentID, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if _, _, ok := s.library.Document(documentID); !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	topK := s.engine.RiskTopK
	if topK <= 0 {
		topK = domain.DefaultRiskTopK
	}
	hits, err := s.retrieval.Search(ctx, question, topK, domain.SearchFilter{DocumentIDs: []string{documentID}})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	answer := &domain.Answer{DocumentID: documentID, Question: question, Sources: hits}
	if len(hits) == 0 {
		answer.Text = NotFoundAnswer
		return answer, nil
	}

	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "[Clause %d: %s]\n%s\n\n", h.Clause.Ordinal+1, clauseLabel(&h.Clause), h.Clause.Text)
	}
	messages := []driven.ChatMessage{
		{Role: "system", Content: s.loadPrompt(driven.PromptChatSystem, defaultChatSystemPrompt)},
		{Role: "user", Content: "Context:\n" + strings.TrimSpace(b.String()) + "\n\nQuestion: " + question},
	}

	var text string
	err = withTimeout(ctx, "llm chat", s.llmTimeout, func(ctx context.Context) error {
		var err error
		text, err = s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	answer.Text = strings.TrimSpace(text)
	return answer, nil
}

// Playbooks lists the built-in and custom playbooks.
func (s *ReportService) Playbooks() []domain.Playbook {
	var custom []domain.Playbook
	if s.playbooks != nil {
		loaded, err := s.playbooks.LoadPlaybooks()
		if err != nil {
			logger.Warn("custom playbooks ignored: %v", err)
		} else {
			custom = loaded
		}
	}
	return mergePlaybooks(custom)
}

func (s *ReportService) generate(ctx context.Context, op, prompt string) (string, error) {
	var out string
	err := withTimeout(ctx, op, s.llmTimeout, func(ctx context.Context) error {
		var err error
		out, err = s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.2})
		return err
	})
	return strings.TrimSpace(out), err
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *ReportService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

func (s *ReportService) threshold() float64 {
	if s.engine.SimilarityThreshold == 0 {
		return domain.DefaultSimilarityThreshold
	}
	return s.engine.SimilarityThreshold
}

func (s *ReportService) evidenceMax() int {
	if s.engine.EvidenceMaxChars <= 0 {
		return domain.DefaultEvidenceMaxChars
	}
	return s.engine.EvidenceMaxChars
}

func formatFindings(findings []domain.RiskFinding) string {
	if len(findings) == 0 {
		return "No rule-based risks were found."
	}
	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "- [%s] %s (%s): %s\n", strings.ToUpper(f.Severity.String()), f.Title, f.RuleID, f.Rationale)
	}
	return strings.TrimSpace(b.String())
}

func citedClauses(findings []domain.RiskFinding, clauses []domain.Clause) string {
	byID := make(map[string]*domain.Clause, len(clauses))
	for i := range clauses {
		byID[clauses[i].ID] = &clauses[i]
	}
	seen := make(map[string]bool)
	var b strings.Builder
	for _, f := range findings {
		for _, ev := range f.Evidence {
			c, ok := byID[ev.ClauseID]
			if !ok || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			fmt.Fprintf(&b, "[Clause %d: %s]\n%s\n\n", c.Ordinal+1, clauseLabel(c), c.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func clauseLabel(c *domain.Clause) string {
	if c.Title != "" {
		return c.Title
	}
	return string(c.Type)
}
