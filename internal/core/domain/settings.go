package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in deterministic lexical embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderHugot runs a sentence-transformer locally through ONNX.
	AIProviderHugot AIProvider = "hugot"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderHugot, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs without a network service.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderHashing || p == AIProviderHugot
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, deterministic)"
	case AIProviderHugot:
		return "Hugot (local ONNX model)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// Default timeouts for collaborator calls.
const (
	DefaultEmbeddingTimeout = 30 * time.Second
	DefaultLLMTimeout       = 120 * time.Second
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name (or the local model path for hugot).
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the vector size for the hashing embedder.
	Dimensions int

	// ModelDir caches downloaded local models (hugot).
	ModelDir string

	// Timeout bounds each embedding call.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables LLM features.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Timeout bounds each completion.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider.IsLocal() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageBackend selects the clause store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageMemory   StorageBackend = "memory"
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageMemory, StorageSQLite, StoragePostgres:
		return true
	default:
		return false
	}
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the SQLite database and the watch inbox default.
	DataDir string

	// PostgresDSN is used when Backend is postgres.
	PostgresDSN string
}

// CacheSettings configures the optional embedding cache.
type CacheSettings struct {
	// RedisAddr enables the Redis embedding cache when set.
	RedisAddr string

	RedisPassword string
	RedisDB       int

	// TTL is how long cached Redis entries live. Zero uses the cache default.
	TTL time.Duration

	// MemoryEntries sizes the in-process LRU used when Redis is not set.
	// Zero disables it.
	MemoryEntries int
}

// Engine defaults.
const (
	DefaultMaxClauseChars      = 1800
	DefaultWindowOverlap       = 0.2
	DefaultSimilarityThreshold = 0.5
	DefaultEvidenceMaxChars    = 14000
	DefaultRiskTopK            = 5
	DefaultWorkers             = 4
	DefaultMaxUploadMB         = 50
	DefaultServerAddr          = "127.0.0.1:8088"
	DefaultCacheEntries        = 10000
)

// EngineSettings holds the tunable parameters of the clause engine.
type EngineSettings struct {
	// MaxClauseChars bounds the size of one clause.
	MaxClauseChars int

	// WindowOverlap is the fraction of a window carried as lead-in context.
	WindowOverlap float64

	// SimilarityThreshold is the default bar for similarity rules.
	SimilarityThreshold float64

	// Playbook is the default rule playbook.
	Playbook string

	// EvidenceMaxChars caps the context handed to the LLM.
	EvidenceMaxChars int

	// RiskTopK is the number of clauses retrieved per risk query.
	RiskTopK int

	// Workers bounds concurrent document ingestion.
	Workers int
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Cache     CacheSettings
	Engine    EngineSettings
	Server    ServerSettings

	// MaxUploadMB limits the size of an ingested file.
	MaxUploadMB int
}

// DefaultAppSettings returns settings with sensible defaults.
// The hashing embedder works offline; the LLM is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Model:      DefaultEmbeddingModels()[AIProviderHashing],
			Dimensions: 512,
			Timeout:    DefaultEmbeddingTimeout,
		},
		LLM: LLMSettings{
			Timeout: DefaultLLMTimeout,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Engine: EngineSettings{
			MaxClauseChars:      DefaultMaxClauseChars,
			WindowOverlap:       DefaultWindowOverlap,
			SimilarityThreshold: DefaultSimilarityThreshold,
			Playbook:            PlaybookStandard,
			EvidenceMaxChars:    DefaultEvidenceMaxChars,
			RiskTopK:            DefaultRiskTopK,
			Workers:             DefaultWorkers,
		},
		Cache:       CacheSettings{MemoryEntries: DefaultCacheEntries},
		Server:      ServerSettings{Addr: DefaultServerAddr},
		MaxUploadMB: DefaultMaxUploadMB,
	}
}

// Validate checks settings for values the engine cannot run with.
func (s AppSettings) Validate() error {
	if !s.Embedding.Provider.IsValid() || s.Embedding.Provider == AIProviderAnthropic {
		return fmt.Errorf("%w: embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	if s.Storage.Backend == StoragePostgres && s.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: storage.postgres_dsn is required for postgres", ErrInvalidInput)
	}
	if s.Engine.MaxClauseChars < 200 {
		return fmt.Errorf("%w: engine.max_clause_chars must be at least 200", ErrInvalidInput)
	}
	if s.Engine.WindowOverlap < 0 || s.Engine.WindowOverlap >= 0.5 {
		return fmt.Errorf("%w: engine.window_overlap must be in [0, 0.5)", ErrInvalidInput)
	}
	if s.Engine.SimilarityThreshold < -1 || s.Engine.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: engine.similarity_threshold must be in [-1, 1]", ErrInvalidInput)
	}
	if s.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: upload.max_mb must be positive", ErrInvalidInput)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderHugot,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "clausesense-hash-v1",
		AIProviderHugot:   "sentence-transformers/all-MiniLM-L6-v2",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Local models
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// VectorSpaceID names the vectors model produces at dims. The bare model
// name is kept when dims is unset or equals the native size, so any other
// size yields a distinct identifier such as "clausesense-hash-v1/256".
func VectorSpaceID(model string, dims, native int) string {
	if dims <= 0 || dims == native {
		return model
	}
	return fmt.Sprintf("%s/%d", model, dims)
}
