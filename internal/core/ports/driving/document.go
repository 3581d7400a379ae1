package driving

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// DocumentService manages ingested contracts.
type DocumentService interface {
	// List returns documents, optionally restricted to one vendor.
	List(ctx context.Context, vendor string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Clauses returns the clauses of a document in order.
	Clauses(ctx context.Context, documentID string) ([]domain.Clause, error)

	// Vendors lists vendors with document counts.
	Vendors(ctx context.Context) ([]domain.VendorSummary, error)

	// Purge removes a document, its clauses, vectors and reports.
	Purge(ctx context.Context, documentID string) error
}
