// Package openai provides an embedding service adapter using the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/clausesense/internal/adapters/driven/openaiclient"
	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel     = "text-embedding-3-small"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 100
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL. Can be changed for Azure OpenAI or
	// compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the size looked up for the model.
	Dimensions int

	// RequestsPerMinute paces requests. Negative disables pacing.
	RequestsPerMinute int
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *openaiclient.Client
	model      string
	id         string
	dimensions int
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := openaiclient.New(openaiclient.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, "openai.embed")
	if err != nil {
		return nil, err
	}

	id := domain.VectorSpaceID(cfg.Model, cfg.Dimensions, modelDimensions[cfg.Model])
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		if dimensions, ok = modelDimensions[cfg.Model]; !ok {
			dimensions = 1536
		}
	}

	return &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		id:         id,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in batches, keeping input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += DefaultBatchSize {
		end := min(start+DefaultBatchSize, len(texts))
		batch := texts[start:end]

		var resp openai.EmbeddingResponse
		err := s.client.Do(ctx, func() error {
			var err error
			resp, err = s.client.API.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: batch,
				Model: openai.EmbeddingModel(s.model),
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("openai: embed batch at %d: %w", start, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(batch))
		}

		vectors := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
			}
			if len(d.Embedding) != s.dimensions {
				return nil, fmt.Errorf("openai: embedding has %d dimensions, expected %d", len(d.Embedding), s.dimensions)
			}
			vectors[d.Index] = d.Embedding
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model name, suffixed with the vector size when
// Dimensions overrides the native one.
func (s *EmbeddingService) ModelName() string {
	return s.id
}

// Ping lists models, which validates the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.API.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
