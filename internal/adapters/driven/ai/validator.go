package ai

import (
	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator pings the configured providers through this package's
// factories. It holds no state.
type ConfigValidator struct{}

// NewConfigValidator returns a validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding builds the embedding service and pings it.
func (ConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(cfg)
}

// ValidateLLM builds the LLM service and pings it. An unset provider passes.
func (ConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	return ValidateLLMConfig(cfg)
}
