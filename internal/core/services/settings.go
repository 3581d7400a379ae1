package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedModelDir   = "embedding.model_dir"
	keyEmbedTimeout    = "embedding.timeout"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMTimeout  = "llm.timeout"

	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
	keyStorageDSN     = "storage.postgres_dsn"

	keyCacheRedisAddr     = "cache.redis_addr"
	keyCacheRedisPassword = "cache.redis_password"
	keyCacheRedisDB       = "cache.redis_db"
	keyCacheTTL           = "cache.ttl"
	keyCacheMemoryEntries = "cache.memory_entries"

	keyEngineMaxClauseChars   = "engine.max_clause_chars"
	keyEngineWindowOverlap    = "engine.window_overlap"
	keyEngineSimilarity       = "engine.similarity_threshold"
	keyEnginePlaybook         = "engine.playbook"
	keyEngineEvidenceMaxChars = "engine.evidence_max_chars"
	keyEngineRiskTopK         = "engine.risk_top_k"
	keyEngineWorkers          = "engine.workers"

	keyServerAddr  = "server.addr"
	keyUploadMaxMB = "upload.max_mb"
)

// DefaultOllamaURL is used when Ollama is selected without a base URL.
const DefaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	playbooks   driven.PlaybookSource
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// SetPlaybookSource lets SetPlaybook accept custom playbook names.
func (s *SettingsService) SetPlaybookSource(source driven.PlaybookSource) {
	s.playbooks = source
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			ModelDir:   s.configStore.GetString(keyEmbedModelDir),
			Timeout:    s.getDuration(keyEmbedTimeout, defaults.Embedding.Timeout),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
			Timeout:  s.getDuration(keyLLMTimeout, defaults.LLM.Timeout),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			DataDir:     s.configStore.GetString(keyStorageDataDir),
			PostgresDSN: s.configStore.GetString(keyStorageDSN),
		},
		Cache: domain.CacheSettings{
			RedisAddr:     s.configStore.GetString(keyCacheRedisAddr),
			RedisPassword: s.configStore.GetString(keyCacheRedisPassword),
			RedisDB:       s.configStore.GetInt(keyCacheRedisDB),
			TTL:           s.getDuration(keyCacheTTL, defaults.Cache.TTL),
			MemoryEntries: s.getInt(keyCacheMemoryEntries, defaults.Cache.MemoryEntries),
		},
		Engine: domain.EngineSettings{
			MaxClauseChars:      s.getInt(keyEngineMaxClauseChars, defaults.Engine.MaxClauseChars),
			WindowOverlap:       s.getFloat(keyEngineWindowOverlap, defaults.Engine.WindowOverlap),
			SimilarityThreshold: s.getFloat(keyEngineSimilarity, defaults.Engine.SimilarityThreshold),
			Playbook:            s.getString(keyEnginePlaybook, defaults.Engine.Playbook),
			EvidenceMaxChars:    s.getInt(keyEngineEvidenceMaxChars, defaults.Engine.EvidenceMaxChars),
			RiskTopK:            s.getInt(keyEngineRiskTopK, defaults.Engine.RiskTopK),
			Workers:             s.getInt(keyEngineWorkers, defaults.Engine.Workers),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
		MaxUploadMB: s.getInt(keyUploadMaxMB, defaults.MaxUploadMB),
	}

	if settings.LLM.Model == "" && settings.LLM.Provider != "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedModelDir, settings.Embedding.ModelDir},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, settings.LLM.Timeout.String()},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyStorageDSN, settings.Storage.PostgresDSN},
		{keyCacheRedisAddr, settings.Cache.RedisAddr},
		{keyCacheRedisDB, settings.Cache.RedisDB},
		{keyCacheTTL, settings.Cache.TTL.String()},
		{keyCacheMemoryEntries, settings.Cache.MemoryEntries},
		{keyEngineMaxClauseChars, settings.Engine.MaxClauseChars},
		{keyEngineWindowOverlap, settings.Engine.WindowOverlap},
		{keyEngineSimilarity, settings.Engine.SimilarityThreshold},
		{keyEnginePlaybook, settings.Engine.Playbook},
		{keyEngineEvidenceMaxChars, settings.Engine.EvidenceMaxChars},
		{keyEngineRiskTopK, settings.Engine.RiskTopK},
		{keyEngineWorkers, settings.Engine.Workers},
		{keyServerAddr, settings.Server.Addr},
		{keyUploadMaxMB, settings.MaxUploadMB},
	}
	for _, kv := range values {
		if err := s.configStore.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	// Secrets are only written when present so env-provided keys stay out of the file.
	secrets := map[string]string{
		keyEmbedAPIKey:        settings.Embedding.APIKey,
		keyLLMAPIKey:          settings.LLM.APIKey,
		keyCacheRedisPassword: settings.Cache.RedisPassword,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = DefaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	valid := false
	for _, p := range domain.AllLLMProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = DefaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetPlaybook changes the default playbook.
func (s *SettingsService) SetPlaybook(name string) error {
	var custom []domain.Playbook
	if s.playbooks != nil {
		loaded, err := s.playbooks.LoadPlaybooks()
		if err != nil {
			return fmt.Errorf("load playbooks: %w", err)
		}
		custom = loaded
	}
	pb, err := findPlaybook(mergePlaybooks(custom), name)
	if err != nil {
		return err
	}
	return s.configStore.Set(keyEnginePlaybook, pb.Name)
}

// Validate checks the stored settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not fully configured", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider %s is not fully configured", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat64(key)
}

// getDuration accepts "30s"-style strings or a number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs := s.configStore.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
