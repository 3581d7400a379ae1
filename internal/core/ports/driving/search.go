package driving

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// RetrievalService provides semantic clause search to external actors.
type RetrievalService interface {
	// Search returns at most topK clauses ordered by descending similarity.
	Search(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.ScoredClause, error)
}

// IndexService manages the clause library as a whole.
type IndexService interface {
	// Reindex re-embeds every clause with the configured model.
	// Returns the number of clauses embedded.
	Reindex(ctx context.Context) (int, error)

	// Stats reports the size of the library.
	Stats() domain.LibraryStats
}
