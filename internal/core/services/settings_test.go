package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return m.embedErr }
func (m *mockAIValidator) ValidateLLM(*domain.LLMSettings) error             { return m.llmErr }

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := svc.Get()
	require.NoError(t, err)
	defaults := svc.GetDefaults()

	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, "clausesense-hash-v1", settings.Embedding.Model)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
	assert.Equal(t, domain.PlaybookStandard, settings.Engine.Playbook)
	assert.Equal(t, domain.DefaultSimilarityThreshold, settings.Engine.SimilarityThreshold)
	assert.Equal(t, domain.DefaultServerAddr, settings.Server.Addr)
	assert.Empty(t, settings.LLM.Provider)
	assert.NoError(t, svc.Validate())
}

func TestSettingsService_ReadsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":                "openai",
		"llm.api_key":                 "sk-test",
		"engine.similarity_threshold": 0.0,
		"engine.window_overlap":       "0.1",
		"embedding.timeout":           "45",
		"llm.timeout":                 "2m",
		"storage.backend":             "bogus",
	})
	svc := NewSettingsService(store, nil)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Equal(t, 0.0, settings.Engine.SimilarityThreshold)
	assert.InDelta(t, 0.1, settings.Engine.WindowOverlap, 1e-9)
	assert.Equal(t, 45*time.Second, settings.Embedding.Timeout)
	assert.Equal(t, 2*time.Minute, settings.LLM.Timeout)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)

	settings := svc.GetDefaults()
	settings.Engine.Playbook = domain.PlaybookStrict
	settings.Engine.RiskTopK = 9
	settings.Cache.TTL = 6 * time.Hour
	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.PlaybookStrict, got.Engine.Playbook)
	assert.Equal(t, 9, got.Engine.RiskTopK)
	assert.Equal(t, 6*time.Hour, got.Cache.TTL)

	_, ok := store.Get("llm.api_key")
	assert.False(t, ok, "empty secrets are not written")
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, DefaultOllamaURL, settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-x"))
	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, 3072, settings.Embedding.Dimensions)
	assert.Equal(t, "sk-x", settings.Embedding.APIKey)

	assert.Error(t, svc.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
	assert.Error(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, svc.SetEmbeddingProvider("nope", "", ""))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "key"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))
	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, DefaultOllamaURL, settings.LLM.BaseURL)

	assert.Error(t, svc.SetLLMProvider(domain.AIProviderHashing, "", ""))
	assert.Error(t, svc.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetPlaybook(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, svc.SetPlaybook("Strict"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.PlaybookStrict, settings.Engine.Playbook)

	assert.ErrorIs(t, svc.SetPlaybook("agency"), domain.ErrInvalidInput)

	svc.SetPlaybookSource(&mockPlaybookSource{playbooks: []domain.Playbook{{Name: "agency"}}})
	require.NoError(t, svc.SetPlaybook("agency"))

	svc.SetPlaybookSource(&mockPlaybookSource{err: errors.New("parse error")})
	assert.Error(t, svc.SetPlaybook("standard"))
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"storage.backend": "postgres"})
	svc := NewSettingsService(store, nil)
	assert.ErrorIs(t, svc.Validate(), domain.ErrInvalidInput)

	store = memory.NewConfigStore(map[string]any{"embedding.provider": "openai"})
	svc = NewSettingsService(store, nil)
	assert.ErrorIs(t, svc.Validate(), domain.ErrInvalidInput)

	store = memory.NewConfigStore(map[string]any{"llm.provider": "anthropic"})
	svc = NewSettingsService(store, nil)
	assert.ErrorIs(t, svc.Validate(), domain.ErrInvalidInput)
}

func TestSettingsService_ValidateProviders(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)
	assert.NoError(t, svc.ValidateEmbeddingConfig())
	assert.NoError(t, svc.ValidateLLMConfig())

	boom := errors.New("unreachable")
	svc = NewSettingsService(memory.NewConfigStore(), &mockAIValidator{embedErr: boom, llmErr: boom})
	assert.ErrorIs(t, svc.ValidateEmbeddingConfig(), boom)
	assert.ErrorIs(t, svc.ValidateLLMConfig(), boom)
}
