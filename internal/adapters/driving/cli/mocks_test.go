package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

var errService = errors.New("service exploded")

type mockIngestService struct {
	requests []driving.IngestRequest
	err      error
	batchErr map[int]error
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &driving.IngestResult{
		Document: &domain.Document{ID: "doc-1", Vendor: req.Vendor, Title: "Acme MSA"},
		Clauses:  3,
	}, nil
}

func (m *mockIngestService) IngestPages(_ context.Context, _, _ string, _ []string) (*driving.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestBatch(_ context.Context, reqs []driving.IngestRequest) []driving.IngestResult {
	m.requests = append(m.requests, reqs...)
	out := make([]driving.IngestResult, len(reqs))
	for i, req := range reqs {
		if err := m.batchErr[i]; err != nil {
			out[i] = driving.IngestResult{Err: err}
			continue
		}
		out[i] = driving.IngestResult{
			Document: &domain.Document{ID: "doc-" + req.Filename, Vendor: req.Vendor, Title: req.Filename},
			Clauses:  2,
		}
	}
	return out
}

type mockDocumentService struct {
	documents []domain.Document
	err       error
	purged    []string
	vendor    string
}

func (m *mockDocumentService) List(_ context.Context, vendor string) ([]domain.Document, error) {
	m.vendor = vendor
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Clauses(_ context.Context, id string) ([]domain.Clause, error) {
	if _, err := m.Get(context.Background(), id); err != nil {
		return nil, err
	}
	return []domain.Clause{
		{ID: "c-0", DocumentID: id, Ordinal: 0, Title: "Term", Type: domain.ClauseAutoRenewal, Confidence: 0.9, Text: "This Agreement renews automatically."},
		{ID: "c-1", DocumentID: id, Ordinal: 1, Type: domain.ClauseLiabilityCap, Confidence: 0.8, Text: "Liability shall not exceed the fees paid."},
	}, nil
}

func (m *mockDocumentService) Vendors(_ context.Context) ([]domain.VendorSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.VendorSummary{{Vendor: "Acme", DocumentCount: 2, LastIngested: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}}, nil
}

func (m *mockDocumentService) Purge(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.purged = append(m.purged, id)
	return nil
}

type mockReportService struct {
	report    *domain.Report
	answer    *domain.Answer
	err       error
	opts      driving.ReportOptions
	latest    bool
	questions []string
}

func (m *mockReportService) Assess(_ context.Context, _ string, opts driving.ReportOptions) (*domain.Report, error) {
	m.opts = opts
	return m.report, m.err
}

func (m *mockReportService) LatestReport(_ context.Context, _ string) (*domain.Report, error) {
	m.latest = true
	return m.report, m.err
}

func (m *mockReportService) Ask(_ context.Context, _, question string) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	return m.answer, m.err
}

func (m *mockReportService) Playbooks() []domain.Playbook {
	return []domain.Playbook{
		{Name: "light", Description: "Consultant review", Disable: []string{"PT-001"}},
		{Name: "standard", Description: "Balanced review"},
		{Name: "strict", Enable: []string{"GL-001"}, Severities: map[string]domain.Severity{"LC-001": domain.SeverityCritical, "AR-002": domain.SeverityHigh}},
	}
}

type mockRetrievalService struct {
	results []domain.ScoredClause
	err     error
	query   string
	topK    int
	filter  domain.SearchFilter
}

func (m *mockRetrievalService) Search(_ context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.ScoredClause, error) {
	m.query, m.topK, m.filter = query, topK, filter
	return m.results, m.err
}

type mockIndexService struct {
	n   int
	err error
}

func (m *mockIndexService) Reindex(_ context.Context) (int, error) {
	return m.n, m.err
}

func (m *mockIndexService) Stats() domain.LibraryStats {
	return domain.LibraryStats{
		Documents: 2,
		Clauses:   14,
		Vectors:   map[string]int{"clausesense-hash-v1": 14},
		Model:     "clausesense-hash-v1",
	}
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
	playbook    string
	embedding   []string
	llm         []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetPlaybook(name string) error {
	if name == "bogus" {
		return domain.ErrInvalidInput
	}
	m.playbook = name
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.pingErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngestService
	documents *mockDocumentService
	reports   *mockReportService
	retrieval *mockRetrievalService
	index     *mockIndexService
	settings  *mockSettingsService
}

func sampleReport() *domain.Report {
	findings := []domain.RiskFinding{
		{
			RuleID:         "AR-001",
			Title:          "Auto-renewal without notice window",
			Severity:       domain.SeverityHigh,
			ClauseType:     domain.ClauseAutoRenewal,
			Rationale:      "Clause 1 renews automatically with no notice period.",
			Recommendation: "Add a 60-day non-renewal notice window.",
			Evidence:       []domain.Evidence{{ClauseID: "c-0", Ordinal: 0, Quote: "renews automatically"}},
		},
	}
	return &domain.Report{
		DocumentID:  "doc-1",
		Vendor:      "Acme",
		Title:       "Acme MSA",
		Playbook:    "standard",
		Findings:    findings,
		Score:       domain.ScoreFindings(findings),
		KeyTerms:    domain.KeyTerms{Parties: []string{"Acme Corp"}, Amounts: []string{"$12,500.00"}},
		Summary:     "A one-year services agreement.",
		Notes:       []string{"evidence truncated to 60 characters"},
		GeneratedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

// setupTestServices installs mock services and returns a cleanup function.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest: &mockIngestService{},
		documents: &mockDocumentService{documents: []domain.Document{
			{ID: "doc-1", Vendor: "Acme", Title: "Acme MSA", Filename: "acme.txt", Pages: []string{"full text"}, ClauseCount: 2},
		}},
		reports:   &mockReportService{report: sampleReport(), answer: &domain.Answer{Text: "Twelve months of fees."}},
		retrieval: &mockRetrievalService{},
		index:     &mockIndexService{n: 14},
		settings:  &mockSettingsService{settings: domain.DefaultAppSettings()},
	}
	SetServices(&Services{
		Ingest:    ts.ingest,
		Documents: ts.documents,
		Reports:   ts.reports,
		Retrieval: ts.retrieval,
		Index:     ts.index,
		Settings:  ts.settings,
	})
	return ts, func() { SetServices(nil) }
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLIWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIWithInput(t, "", args...)
}
