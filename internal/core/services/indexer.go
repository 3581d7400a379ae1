package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// DefaultEmbedBatchSize bounds the texts sent in one EmbedBatch call.
const DefaultEmbedBatchSize = 64

// Indexer embeds clauses and keeps the clause library in step with them.
type Indexer struct {
	library   *ClauseLibrary
	embedder  driven.EmbeddingService
	documents driven.DocumentStore
	metrics   driven.MetricsRecorder
	timeout   time.Duration
	batchSize int
}

// NewIndexer creates an indexer. timeout bounds each embedding call; zero
// disables the bound. documents is optional and supplies page text when
// rebuilding during Reindex.
func NewIndexer(
	library *ClauseLibrary,
	embedder driven.EmbeddingService,
	documents driven.DocumentStore,
	timeout time.Duration,
) *Indexer {
	return &Indexer{
		library:   library,
		embedder:  embedder,
		documents: documents,
		timeout:   timeout,
		batchSize: DefaultEmbedBatchSize,
	}
}

// SetMetrics attaches a metrics recorder.
func (x *Indexer) SetMetrics(m driven.MetricsRecorder) {
	x.metrics = m
}

// IndexClauses embeds the clauses of doc and inserts them into the library,
// replacing anything previously indexed for the document.
func (x *Indexer) IndexClauses(ctx context.Context, doc *domain.Document, clauses []domain.Clause) ([]domain.EmbeddingRecord, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if x.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	model := x.embedder.ModelName()
	if err := x.library.CheckModel(model); err != nil {
		return nil, err
	}

	records, err := x.embed(ctx, model, clauses)
	if err != nil {
		return nil, err
	}

	indexed := &domain.IndexedDocument{
		Document:   *doc,
		Clauses:    clauses,
		Embeddings: records,
	}
	indexed.Document.ClauseCount = len(clauses)
	if err := x.library.Insert(ctx, indexed); err != nil {
		return nil, err
	}

	if x.metrics != nil {
		x.metrics.ClausesIndexed(len(clauses))
	}
	logger.Debug("indexed %d clauses of %s with %s", len(clauses), doc.ID, model)
	return records, nil
}

// RemoveDocument deletes a document's clauses and vectors from the library.
func (x *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	return x.library.Remove(ctx, documentID)
}

// Reindex re-embeds every document with the configured model. Vectors from
// other models are dropped as each document is replaced.
func (x *Indexer) Reindex(ctx context.Context) (int, error) {
	if x.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	model := x.embedder.ModelName()
	logger.Section("Reindex")

	total := 0
	var errs []error
	for _, meta := range x.library.Documents() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		doc, clauses, ok := x.library.Document(meta.ID)
		if !ok {
			continue
		}
		if x.documents != nil {
			if full, err := x.documents.GetDocument(ctx, meta.ID); err == nil {
				doc = *full
			}
		}

		records, err := x.embed(ctx, model, clauses)
		if err != nil {
			errs = append(errs, fmt.Errorf("reindex %s: %w", meta.ID, err))
			continue
		}
		if err := x.library.Insert(ctx, &domain.IndexedDocument{Document: doc, Clauses: clauses, Embeddings: records}); err != nil {
			errs = append(errs, fmt.Errorf("reindex %s: %w", meta.ID, err))
			continue
		}
		total += len(clauses)
		logger.Debug("reindexed %s: %d clauses", meta.ID, len(clauses))
	}

	if x.metrics != nil {
		x.metrics.ClausesIndexed(total)
	}
	logger.Info("reindexed %d clauses with %s", total, model)
	return total, errors.Join(errs...)
}

// Stats reports the size of the library.
func (x *Indexer) Stats() domain.LibraryStats {
	model := ""
	if x.embedder != nil {
		model = x.embedder.ModelName()
	}
	return x.library.Stats(model)
}

// embed computes one record per clause, in batches, each under the timeout.
func (x *Indexer) embed(ctx context.Context, model string, clauses []domain.Clause) ([]domain.EmbeddingRecord, error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	start := time.Now()
	records := make([]domain.EmbeddingRecord, 0, len(clauses))

	for lo := 0; lo < len(clauses); lo += x.batchSize {
		hi := min(lo+x.batchSize, len(clauses))
		texts := make([]string, 0, hi-lo)
		for i := lo; i < hi; i++ {
			texts = append(texts, clauses[i].EmbeddingText())
		}

		var vectors [][]float32
		err := withTimeout(ctx, "embed clauses", x.timeout, func(ctx context.Context) error {
			var err error
			vectors, err = x.embedder.EmbedBatch(ctx, texts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embed clauses: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embed clauses: got %d vectors for %d texts", len(vectors), len(texts))
		}
		for i, vec := range vectors {
			records = append(records, domain.EmbeddingRecord{
				ClauseID: clauses[lo+i].ID,
				Vector:   vec,
				Model:    model,
			})
		}
	}

	if x.metrics != nil {
		x.metrics.ObserveStage("embed", time.Since(start))
	}
	return records, nil
}
