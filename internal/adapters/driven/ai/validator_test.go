package ai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

func TestNewConfigValidator(t *testing.T) {
	validator := NewConfigValidator()

	require.NotNil(t, validator)
}

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = (*ConfigValidator)(nil)
}

func TestConfigValidator_ValidateEmbedding_NilConfig(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateEmbedding(nil))
}

func TestConfigValidator_ValidateEmbedding_Hashing(t *testing.T) {
	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderHashing})
	assert.NoError(t, err)
}

func TestConfigValidator_ValidateEmbedding_Unreachable(t *testing.T) {
	srv := ollamaStub(t, http.StatusInternalServerError)
	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	assert.Error(t, err)
}

func TestConfigValidator_ValidateLLM_NilConfig(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateLLM(nil))
}

func TestConfigValidator_ValidateLLM_Reachable(t *testing.T) {
	srv := ollamaStub(t, http.StatusOK)
	err := NewConfigValidator().ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	assert.NoError(t, err)
}
