package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "hashing is valid", provider: AIProviderHashing, expected: true},
		{name: "hugot is valid", provider: AIProviderHugot, expected: true},
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "sk"}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHashing}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.Equal(t, "clausesense-hash-v1", s.Embedding.Model)
	assert.Equal(t, StorageSQLite, s.Storage.Backend)
	assert.Equal(t, 1800, s.Engine.MaxClauseChars)
	assert.InDelta(t, 0.2, s.Engine.WindowOverlap, 1e-9)
	assert.Equal(t, 14000, s.Engine.EvidenceMaxChars)
	assert.Equal(t, 50, s.MaxUploadMB)
	assert.False(t, s.LLM.IsConfigured())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"bad embedding provider", func(s *AppSettings) { s.Embedding.Provider = "nope" }},
		{"anthropic cannot embed", func(s *AppSettings) { s.Embedding.Provider = AIProviderAnthropic }},
		{"bad llm provider", func(s *AppSettings) { s.LLM.Provider = "nope" }},
		{"bad backend", func(s *AppSettings) { s.Storage.Backend = "mongo" }},
		{"postgres without dsn", func(s *AppSettings) { s.Storage.Backend = StoragePostgres }},
		{"tiny clauses", func(s *AppSettings) { s.Engine.MaxClauseChars = 50 }},
		{"overlap too large", func(s *AppSettings) { s.Engine.WindowOverlap = 0.7 }},
		{"threshold out of range", func(s *AppSettings) { s.Engine.SimilarityThreshold = 1.5 }},
		{"no upload budget", func(s *AppSettings) { s.MaxUploadMB = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}

func TestVectorSpaceID(t *testing.T) {
	assert.Equal(t, "clausesense-hash-v1", VectorSpaceID("clausesense-hash-v1", 0, 512))
	assert.Equal(t, "clausesense-hash-v1", VectorSpaceID("clausesense-hash-v1", 512, 512))
	assert.Equal(t, "clausesense-hash-v1/256", VectorSpaceID("clausesense-hash-v1", 256, 512))
	assert.Equal(t, "custom/1024", VectorSpaceID("custom", 1024, 0))
}
