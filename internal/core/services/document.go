package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested contracts.
type DocumentService struct {
	docStore driven.DocumentStore
	indexer  *Indexer
	reports  driven.ReportStore
}

// NewDocumentService creates a new document service.
// The reports parameter is optional (can be nil).
func NewDocumentService(docStore driven.DocumentStore, indexer *Indexer, reports driven.ReportStore) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		indexer:  indexer,
		reports:  reports,
	}
}

// List returns documents, newest first, optionally for one vendor.
func (s *DocumentService) List(ctx context.Context, vendor string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, strings.TrimSpace(vendor))
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// Clauses returns the clauses of a document in ordinal order.
func (s *DocumentService) Clauses(ctx context.Context, documentID string) ([]domain.Clause, error) {
	return s.docStore.GetClauses(ctx, documentID)
}

// Vendors lists vendors with document counts.
func (s *DocumentService) Vendors(ctx context.Context) ([]domain.VendorSummary, error) {
	return s.docStore.ListVendors(ctx)
}

// Purge removes a document with its clauses, vectors and reports.
func (s *DocumentService) Purge(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if err := s.indexer.RemoveDocument(ctx, documentID); err != nil {
		return err
	}
	if s.reports != nil {
		if err := s.reports.DeleteReports(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete reports: %w", err)
		}
	}
	logger.Info("purged document %s", documentID)
	return nil
}
