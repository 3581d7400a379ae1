package httpapi

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

type mockIngestService struct {
	result *driving.IngestResult
	err    error
	batch  []driving.IngestResult

	requests []driving.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func (m *mockIngestService) IngestPages(_ context.Context, _, _ string, _ []string) (*driving.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) IngestBatch(_ context.Context, reqs []driving.IngestRequest) []driving.IngestResult {
	m.requests = append(m.requests, reqs...)
	return m.batch
}

type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	clauses   []domain.Clause
	vendors   []domain.VendorSummary
	err       error

	purged string
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Clauses(_ context.Context, _ string) ([]domain.Clause, error) {
	return m.clauses, m.err
}

func (m *mockDocumentService) Vendors(_ context.Context) ([]domain.VendorSummary, error) {
	return m.vendors, m.err
}

func (m *mockDocumentService) Purge(_ context.Context, id string) error {
	m.purged = id
	return m.err
}

type mockReportService struct {
	report    *domain.Report
	answer    *domain.Answer
	playbooks []domain.Playbook
	err       error

	opts     driving.ReportOptions
	question string
}

func (m *mockReportService) Assess(_ context.Context, _ string, opts driving.ReportOptions) (*domain.Report, error) {
	m.opts = opts
	return m.report, m.err
}

func (m *mockReportService) LatestReport(_ context.Context, _ string) (*domain.Report, error) {
	return m.report, m.err
}

func (m *mockReportService) Ask(_ context.Context, _, question string) (*domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

func (m *mockReportService) Playbooks() []domain.Playbook {
	return m.playbooks
}

type mockRetrievalService struct {
	results []domain.ScoredClause
	err     error

	query  string
	topK   int
	filter domain.SearchFilter
}

func (m *mockRetrievalService) Search(_ context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.ScoredClause, error) {
	m.query, m.topK, m.filter = query, topK, filter
	return m.results, m.err
}

type mockIndexService struct {
	n     int
	err   error
	stats domain.LibraryStats
}

func (m *mockIndexService) Reindex(_ context.Context) (int, error) {
	return m.n, m.err
}

func (m *mockIndexService) Stats() domain.LibraryStats {
	return m.stats
}
