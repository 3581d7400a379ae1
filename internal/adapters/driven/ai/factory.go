// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	memorycache "github.com/custodia-labs/clausesense/internal/adapters/driven/cache/memory"
	rediscache "github.com/custodia-labs/clausesense/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/embedding/hashing"
	hugotembed "github.com/custodia-labs/clausesense/internal/adapters/driven/embedding/hugot"
	ollamaembed "github.com/custodia-labs/clausesense/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/clausesense/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/clausesense/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/clausesense/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/clausesense/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues, e.g. an unreachable LLM.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates the embedding service (cached when configured) and the
// optional LLM. An embedding failure is fatal because the clause library
// cannot be queried without it. An LLM failure only disables prose features.
func Init(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	embedding, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: provider %q", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	embedding, err = WithCache(ctx, embedding, settings.Cache)
	if err != nil {
		_ = embedding.Close()
		return nil, err
	}

	result := &InitResult{EmbeddingService: embedding}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("LLM disabled: %v", err)
	}
	result.LLMService = llm
	return result, nil
}

// WithCache wraps svc with the configured embedding cache: Redis when an
// address is set, otherwise an in-process LRU when MemoryEntries > 0.
// On error svc is returned unwrapped so the caller can close it.
func WithCache(ctx context.Context, svc driven.EmbeddingService, cfg domain.CacheSettings) (driven.EmbeddingService, error) {
	switch {
	case cfg.RedisAddr != "":
		cache, err := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return svc, fmt.Errorf("embedding cache: %w", err)
		}
		return cached.New(svc, cache), nil
	case cfg.MemoryEntries > 0:
		return cached.New(svc, memorycache.New(cfg.MemoryEntries)), nil
	default:
		return svc, nil
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'clausesense settings set embedding.provider ...' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil without error when no LLM is configured.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for the configured provider.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use hashing, hugot, ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(hashing.Config{
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderHugot:
		return hugotembed.NewEmbeddingService(hugotembed.Config{
			Model:      settings.Model,
			ModelDir:   settings.ModelDir,
			Dimensions: dimensionsFor(settings),
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: dimensionsFor(settings),
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: dimensionsFor(settings),
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// dimensionsFor prefers an explicit setting, then the known model table.
func dimensionsFor(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}
