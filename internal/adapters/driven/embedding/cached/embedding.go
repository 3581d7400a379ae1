// Package cached wraps an embedding service with a vector cache. Cache
// failures are logged and never fail an embedding call.
package cached

import (
	"context"

	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves vectors from the cache when it can.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache driven.EmbeddingCache
}

// New wraps inner with cache.
func New(inner driven.EmbeddingService, cache driven.EmbeddingCache) *EmbeddingService {
	return &EmbeddingService{inner: inner, cache: cache}
}

// Embed returns the cached vector or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch only sends cache misses to the wrapped service.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	model := s.inner.ModelName()
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		v, ok, err := s.cache.Get(ctx, model, text)
		if err != nil {
			logger.L().Warn("embedding cache read failed", zap.Error(err))
		}
		if ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		if err := s.cache.Set(ctx, model, texts[i], vectors[j]); err != nil {
			logger.L().Warn("embedding cache write failed", zap.Error(err))
		}
	}

	logger.Debug("embed batch: %d cached, %d computed", len(texts)-len(missTexts), len(missTexts))
	return out, nil
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes both the cache and the wrapped service.
func (s *EmbeddingService) Close() error {
	cacheErr := s.cache.Close()
	if err := s.inner.Close(); err != nil {
		return err
	}
	return cacheErr
}
