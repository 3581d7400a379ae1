// Package hashing provides an offline embedding service built on feature
// hashing. Word tokens and clause-type concepts are hashed into a fixed number
// of signed buckets and the result is L2-normalised, so two texts sharing
// vocabulary or legal concepts score a high cosine similarity.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/segmentation/classifier"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "clausesense-hash-v1"
	DefaultDimensions = 512

	// ConceptWeight is added to a concept bucket for every matching trigger.
	ConceptWeight = 3.0
)

var token = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Config holds configuration for the hashing embedding service.
type Config struct {
	// Model names the vector space. Changing any hashing behaviour must
	// change the model name so existing indexes are rebuilt.
	Model string

	// Dimensions is the number of hash buckets. A size other than
	// DefaultDimensions is appended to the model name.
	Dimensions int
}

// EmbeddingService embeds text without any network or model files.
type EmbeddingService struct {
	model      string
	dimensions int
	concepts   *classifier.Lexical
}

// NewEmbeddingService creates a hashing embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		model:      domain.VectorSpaceID(cfg.Model, cfg.Dimensions, DefaultDimensions),
		dimensions: cfg.Dimensions,
		concepts:   classifier.New(),
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	for _, tok := range token.FindAllString(strings.ToLower(text), -1) {
		s.add(vec, "t:"+tok, 1)
	}
	for ct, labels := range s.concepts.Matches(text) {
		s.add(vec, "c:"+string(ct), ConceptWeight*float64(len(labels)))
	}

	return normalise(vec), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// add hashes a feature into a signed bucket.
func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func normalise(vec []float64) []float32 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the vector space.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
