package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/clausesense/internal/adapters/driven/ai"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/config/file"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/clausesense/internal/adapters/driving/cli"
	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/services"
	"github.com/custodia-labs/clausesense/internal/extractors"
	"github.com/custodia-labs/clausesense/internal/extractors/docx"
	"github.com/custodia-labs/clausesense/internal/extractors/html"
	"github.com/custodia-labs/clausesense/internal/extractors/markdown"
	"github.com/custodia-labs/clausesense/internal/extractors/plaintext"
	"github.com/custodia-labs/clausesense/internal/logger"
	"github.com/custodia-labs/clausesense/internal/segmentation"
)

// stores groups the storage ports of one backend.
type stores struct {
	clauses   driven.ClauseStore
	documents driven.DocumentStore
	reports   driven.ReportStore
	close     func() error
}

// bootstrap builds every service from the settings in opts.ConfigDir.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	logger.Section("bootstrap")

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	configDir := opts.ConfigDir
	if configDir == "" {
		if configDir, err = file.DefaultConfigDir(); err != nil {
			return nil, err
		}
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	playbooks, err := file.NewPlaybookSource(filepath.Join(configDir, "playbooks"))
	if err != nil {
		return nil, err
	}
	settingsService.SetPlaybookSource(playbooks)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := settingsService.Validate(); err != nil {
		logger.Warn("invalid settings, run 'clausesense settings': %v", err)
	}
	if settings.Storage.DataDir == "" && opts.ConfigDir != "" {
		settings.Storage.DataDir = filepath.Join(opts.ConfigDir, "data")
	}

	aiResult, err := ai.Init(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}

	st, err := openStores(ctx, &settings.Storage)
	if err != nil {
		aiResult.Close()
		return nil, err
	}

	library := services.NewClauseLibrary(st.clauses)
	if err := library.Load(ctx); err != nil {
		aiResult.Close()
		_ = st.close()
		return nil, err
	}

	segmenter, err := segmentation.NewDefault(segmentation.Config{
		MaxChars: settings.Engine.MaxClauseChars,
		Overlap:  settings.Engine.WindowOverlap,
	})
	if err != nil {
		aiResult.Close()
		_ = st.close()
		return nil, err
	}

	maxBytes := int64(settings.MaxUploadMB) << 20
	registry := extractors.NewRegistry(maxBytes)
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(html.New())
	registry.Register(docx.New())

	metrics := prometheus.New()

	embedder := aiResult.EmbeddingService
	indexer := services.NewIndexer(library, embedder, st.documents, settings.Embedding.Timeout)
	indexer.SetMetrics(metrics)

	retrieval := services.NewRetrievalService(library, embedder, settings.Embedding.Timeout)
	retrieval.SetMetrics(metrics)

	ingest := services.NewIngestService(registry, segmenter, indexer, settings.Engine.Workers)
	ingest.SetMetrics(metrics)

	reports := services.NewReportService(library, retrieval, aiResult.LLMService, settings.Engine, settings.LLM.Timeout)
	reports.SetReportStore(st.reports)
	reports.SetPlaybookSource(playbooks)
	reports.SetMetrics(metrics)
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		logger.Warn("prompt overrides disabled: %v", err)
	} else {
		reports.SetPromptStore(prompts)
	}

	documents := services.NewDocumentService(st.documents, indexer, st.reports)

	logger.Debug("embedding model %s, storage %s", embedder.ModelName(), settings.Storage.Backend)

	return &cli.Services{
		Ingest:         ingest,
		Documents:      documents,
		Reports:        reports,
		Retrieval:      retrieval,
		Index:          indexer,
		Settings:       settingsService,
		Metrics:        metrics.Handler(),
		MaxUploadBytes: maxBytes,
		ServerAddr:     settings.Server.Addr,
		Close: func() error {
			aiResult.Close()
			return st.close()
		},
	}, nil
}

func openStores(ctx context.Context, cfg *domain.StorageSettings) (*stores, error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		s := memory.NewStore()
		return &stores{clauses: s, documents: s, reports: s, close: func() error { return nil }}, nil
	case domain.StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &stores{clauses: s, documents: s, reports: s, close: s.Close}, nil
	case domain.StorageSQLite, "":
		s, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return &stores{
			clauses:   s.ClauseStore(),
			documents: s.DocumentStore(),
			reports:   s.ReportStore(),
			close:     s.Close,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}
