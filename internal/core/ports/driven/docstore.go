package driven

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// ClauseStore persists documents with their clauses and vectors.
// Writes are atomic per document: either every row of a document changes or none do.
type ClauseStore interface {
	// ReplaceDocument writes the document, its clauses and its vectors in one
	// transaction, replacing anything previously stored for the document id.
	ReplaceDocument(ctx context.Context, doc *domain.IndexedDocument) error

	// DeleteDocument removes a document and everything it owns in one transaction.
	// Returns ErrNotFound if the document does not exist.
	DeleteDocument(ctx context.Context, documentID string) error

	// LoadAll returns every stored document with its clauses and vectors,
	// used to rebuild the in-memory clause library at startup.
	LoadAll(ctx context.Context) ([]domain.IndexedDocument, error)
}

// DocumentStore is the read side of the document registry.
type DocumentStore interface {
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetClauses retrieves the clauses of a document in ordinal order.
	GetClauses(ctx context.Context, documentID string) ([]domain.Clause, error)

	// ListDocuments returns documents, newest first. An empty vendor lists all.
	ListDocuments(ctx context.Context, vendor string) ([]domain.Document, error)

	// ListVendors returns distinct vendors with document counts.
	ListVendors(ctx context.Context) ([]domain.VendorSummary, error)
}

// ReportStore keeps assembled reports.
type ReportStore interface {
	// SaveReport stores the latest report for its document.
	SaveReport(ctx context.Context, report *domain.Report) error

	// GetReport returns the latest report for a document, or ErrNotFound.
	GetReport(ctx context.Context, documentID string) (*domain.Report, error)

	// DeleteReports removes all reports of a document.
	DeleteReports(ctx context.Context, documentID string) error
}
