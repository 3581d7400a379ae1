// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Output must be deterministic for a given ModelName: the clause library keys
// its partitions by model name and refuses to compare vectors across models.
//
// Implementations include:
//   - Hashing (built-in, offline)
//   - Hugot (local ONNX sentence-transformers)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores vectors keyed by model and text.
type EmbeddingCache interface {
	// Get returns the cached vector and true on a hit.
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Set stores a vector.
	Set(ctx context.Context, model, text string, vector []float32) error

	// Close releases resources.
	Close() error
}
