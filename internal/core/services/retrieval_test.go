package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func TestRetrievalService_FindsLiabilityCap(t *testing.T) {
	e := newEngine(t)
	e.ingest(t, "d1", "Acme", sampleContract)

	results, err := e.retrieval.Search(context.Background(), "liability cap", 1, domain.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Clause.Text, "shall not exceed the fees paid")
	assert.GreaterOrEqual(t, results[0].Score, 0.5)
	assert.Equal(t, "Acme", results[0].Vendor)
}

func TestRetrievalService_Properties(t *testing.T) {
	e := newEngine(t)
	e.ingest(t, "d1", "Acme", sampleContract)
	e.ingest(t, "d2", "Globex", "1. Payment. Invoices are payable net 45.\n\n2. Warranty. The software is provided as is.")

	for _, k := range []int{1, 2, 3, 10} {
		results, err := e.retrieval.Search(context.Background(), "payment of invoices", k, domain.SearchFilter{})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), k)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
		}
	}

	results, err := e.retrieval.Search(context.Background(), "payment of invoices", 10,
		domain.SearchFilter{Vendor: "globex"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "d2", r.Clause.DocumentID)
	}
}

func TestRetrievalService_RemovedDocumentNeverReturned(t *testing.T) {
	e := newEngine(t)
	e.ingest(t, "d1", "Acme", sampleContract)
	e.ingest(t, "d2", "Acme", sampleContract)

	require.NoError(t, e.indexer.RemoveDocument(context.Background(), "d1"))

	results, err := e.retrieval.Search(context.Background(), "liability cap", 10, domain.SearchFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "d1", r.Clause.DocumentID)
	}
}

func TestRetrievalService_EmptyCases(t *testing.T) {
	e := newEngine(t)

	results, err := e.retrieval.Search(context.Background(), "liability cap", 5, domain.SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, results)

	e.ingest(t, "d1", "Acme", sampleContract)
	results, err = e.retrieval.Search(context.Background(), "   ", 5, domain.SearchFilter{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetrievalService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no embedder", func(t *testing.T) {
		svc := NewRetrievalService(NewClauseLibrary(nil), nil, 0)
		_, err := svc.Search(ctx, "query", 5, domain.SearchFilter{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Empty(t, svc.ModelName())
	})

	t.Run("model mismatch", func(t *testing.T) {
		lib := NewClauseLibrary(nil)
		require.NoError(t, lib.Insert(ctx, simpleDoc("d1", "Acme", "other", []float32{1, 0})))
		svc := NewRetrievalService(lib, &mockEmbeddingService{fallback: []float32{1, 0}}, 0)
		_, err := svc.Search(ctx, "query", 5, domain.SearchFilter{})
		assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	})

	t.Run("timeout", func(t *testing.T) {
		svc := NewRetrievalService(NewClauseLibrary(nil),
			&mockEmbeddingService{fallback: []float32{1}, delay: time.Second}, 10*time.Millisecond)
		_, err := svc.Search(ctx, "query", 5, domain.SearchFilter{})
		var timeout *domain.TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "embed query", timeout.Op)
	})
}

func TestRetrievalService_Metrics(t *testing.T) {
	lib := NewClauseLibrary(nil)
	require.NoError(t, lib.Insert(context.Background(), simpleDoc("d1", "Acme", "mock-model", []float32{1, 0})))
	svc := NewRetrievalService(lib, &mockEmbeddingService{fallback: []float32{1, 0}}, 0)
	metrics := newMockMetrics()
	svc.SetMetrics(metrics)

	_, err := svc.Search(context.Background(), "query", 5, domain.SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.searches)
	assert.Equal(t, 1, metrics.stages["search"])
	assert.Equal(t, "mock-model", svc.ModelName())
}
