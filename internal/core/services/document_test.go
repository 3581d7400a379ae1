package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

func TestDocumentService_ListAndGet(t *testing.T) {
	e := newEngine(t)
	e.ingest(t, "d1", "Acme", sampleContract)
	e.ingest(t, "d2", "Globex", sampleContract)
	svc := NewDocumentService(e.store, e.indexer, e.store)
	ctx := context.Background()

	docs, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = svc.List(ctx, " Acme ")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)

	doc, err := svc.Get(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, "Globex", doc.Vendor)

	clauses, err := svc.Clauses(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, clauses, 3)
	for i, c := range clauses {
		assert.Equal(t, i, c.Ordinal)
	}

	vendors, err := svc.Vendors(ctx)
	require.NoError(t, err)
	assert.Len(t, vendors, 2)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Purge(t *testing.T) {
	e := newEngine(t)
	e.ingest(t, "d1", "Acme", sampleContract)
	e.ingest(t, "d2", "Acme", sampleContract)
	ctx := context.Background()

	reports := NewReportService(e.library, e.retrieval, nil, domain.EngineSettings{}, 0)
	reports.SetReportStore(e.store)
	_, err := reports.Assess(ctx, "d1", driving.ReportOptions{})
	require.NoError(t, err)

	svc := NewDocumentService(e.store, e.indexer, e.store)
	require.NoError(t, svc.Purge(ctx, "d1"))

	_, err = svc.Get(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = reports.LatestReport(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err := e.retrieval.Search(ctx, "liability cap", 10, domain.SearchFilter{})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "d2", r.Clause.DocumentID)
	}

	assert.ErrorIs(t, svc.Purge(ctx, "d1"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Purge(ctx, ""), domain.ErrInvalidInput)
}
