// Package hugot provides a local sentence-transformer embedding service
// running ONNX models through the hugot pure-Go backend.
package hugot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions = 384
	DefaultOnnxFile   = "onnx/model.onnx"
	DefaultBatchSize  = 16
)

// Config holds configuration for the hugot embedding service.
type Config struct {
	// Model is the Hugging Face model name.
	Model string

	// ModelDir is where models are downloaded and cached.
	ModelDir string

	// Dimensions is the embedding size produced by the model.
	Dimensions int

	// BatchSize caps the texts run through the pipeline at once.
	BatchSize int
}

// EmbeddingService generates embeddings in-process.
type EmbeddingService struct {
	mu         sync.Mutex
	session    *hugot.Session
	pipeline   *pipelines.FeatureExtractionPipeline
	model      string
	id         string
	dimensions int
	batchSize  int
}

// ModelPath returns where a model is stored inside dir.
func ModelPath(dir, model string) string {
	return filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
}

// PrepareModel downloads the model into dir unless it is already present.
func PrepareModel(dir, model string) (string, error) {
	path := ModelPath(dir, model)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("hugot: stat model: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("hugot: create model directory: %w", err)
	}
	logger.Info("downloading embedding model %s to %s", model, dir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = DefaultOnnxFile
	downloaded, err := hugot.DownloadModel(model, dir, opts)
	if err != nil {
		return "", fmt.Errorf("hugot: download model: %w", err)
	}
	return downloaded, nil
}

// NewEmbeddingService loads (downloading if needed) the model and builds a
// feature extraction pipeline.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = "models"
	}
	native := domain.EmbeddingDimensions()[cfg.Model]
	if cfg.Model == DefaultModel {
		native = DefaultDimensions
	}
	id := domain.VectorSpaceID(cfg.Model, cfg.Dimensions, native)
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	path, err := PrepareModel(cfg.ModelDir, cfg.Model)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("hugot: create session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "clause-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("hugot: create pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("hugot: create pipeline: %w", err)
	}

	return &EmbeddingService{
		session:    session,
		pipeline:   pipeline,
		model:      cfg.Model,
		id:         id,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
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

// EmbedBatch runs the pipeline over texts in batches.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipeline == nil {
		return nil, fmt.Errorf("hugot: service closed")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+s.batchSize, len(texts))
		result, err := s.pipeline.RunPipeline(texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("hugot: run pipeline: %w", err)
		}
		if len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("hugot: got %d embeddings for %d inputs", len(result.Embeddings), end-start)
		}
		for _, v := range result.Embeddings {
			if len(v) != s.dimensions {
				return nil, fmt.Errorf("hugot: embedding has %d dimensions, expected %d", len(v), s.dimensions)
			}
		}
		out = append(out, result.Embeddings...)
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

// Ping embeds a one-word text.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	s.pipeline = nil
	return err
}
