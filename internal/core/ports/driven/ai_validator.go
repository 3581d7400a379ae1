package driven

import "github.com/custodia-labs/clausesense/internal/core/domain"

// AIConfigValidator checks provider settings against the live service
// before SettingsService persists them.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM returns nil when no LLM provider is set.
	ValidateLLM(config *domain.LLMSettings) error
}
