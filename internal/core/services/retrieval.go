package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers semantic clause queries against the library.
type RetrievalService struct {
	library  *ClauseLibrary
	embedder driven.EmbeddingService
	metrics  driven.MetricsRecorder
	timeout  time.Duration
}

// NewRetrievalService creates a retrieval service. timeout bounds the query
// embedding call.
func NewRetrievalService(library *ClauseLibrary, embedder driven.EmbeddingService, timeout time.Duration) *RetrievalService {
	return &RetrievalService{
		library:  library,
		embedder: embedder,
		timeout:  timeout,
	}
}

// SetMetrics attaches a metrics recorder.
func (s *RetrievalService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Search returns at most topK clauses by descending similarity to query.
// An empty query or an empty library yields an empty result.
func (s *RetrievalService) Search(
	ctx context.Context, query string, topK int, filter domain.SearchFilter,
) ([]domain.ScoredClause, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ScoredClause{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	model := s.embedder.ModelName()
	if err := s.library.CheckModel(model); err != nil {
		return nil, err
	}

	start := time.Now()
	var vec []float32
	err := withTimeout(ctx, "embed query", s.timeout, func(ctx context.Context) error {
		var err error
		vec, err = s.embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.library.Search(model, vec, filter, topK)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SearchPerformed(len(results))
		s.metrics.ObserveStage("search", time.Since(start))
	}
	logger.Debug("search %q: %d results", query, len(results))
	return results, nil
}

// ModelName returns the configured embedding model, or "" without an embedder.
func (s *RetrievalService) ModelName() string {
	if s.embedder == nil {
		return ""
	}
	return s.embedder.ModelName()
}
