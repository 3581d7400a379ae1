package mcp

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.ScoredClause
	err     error

	query  string
	topK   int
	filter domain.SearchFilter
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	query string,
	topK int,
	filter domain.SearchFilter,
) ([]domain.ScoredClause, error) {
	m.query, m.topK, m.filter = query, topK, filter
	return m.results, m.err
}

// mockReportService is a mock implementation of driving.ReportService.
type mockReportService struct {
	report *domain.Report
	answer *domain.Answer
	err    error

	opts driving.ReportOptions
}

func (m *mockReportService) Assess(_ context.Context, _ string, opts driving.ReportOptions) (*domain.Report, error) {
	m.opts = opts
	return m.report, m.err
}

func (m *mockReportService) LatestReport(_ context.Context, _ string) (*domain.Report, error) {
	return m.report, m.err
}

func (m *mockReportService) Ask(_ context.Context, _, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

func (m *mockReportService) Playbooks() []domain.Playbook {
	return nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	clauses   []domain.Clause
	err       error
	getErr    error

	vendor string
}

func (m *mockDocumentService) List(_ context.Context, vendor string) ([]domain.Document, error) {
	m.vendor = vendor
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.getErr
}

func (m *mockDocumentService) Clauses(_ context.Context, _ string) ([]domain.Clause, error) {
	return m.clauses, m.err
}

func (m *mockDocumentService) Vendors(_ context.Context) ([]domain.VendorSummary, error) {
	return nil, m.err
}

func (m *mockDocumentService) Purge(_ context.Context, _ string) error {
	return m.err
}
