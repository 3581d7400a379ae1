package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testDocument(id, vendor string, at time.Time, n int) *domain.IndexedDocument {
	doc := &domain.IndexedDocument{
		Document: domain.Document{
			ID:            id,
			Vendor:        vendor,
			Title:         "Master Services Agreement",
			Filename:      id + ".txt",
			Pages:         []string{"1. Term", "2. Fees"},
			OCRConfidence: []float64{0.9, 0.8},
			ClauseCount:   n,
			IngestedAt:    at,
		},
	}
	for i := 0; i < n; i++ {
		cid := fmt.Sprintf("%s-clause-%d", id, i)
		doc.Clauses = append(doc.Clauses, domain.Clause{
			ID:         cid,
			DocumentID: id,
			Ordinal:    i,
			Title:      fmt.Sprintf("%d. Section", i+1),
			Text:       fmt.Sprintf("Clause body %d.", i),
			Context:    "lead-in",
			Start:      i * 100,
			End:        i*100 + 15,
			Page:       i + 1,
			Type:       domain.ClauseLiabilityCap,
			Confidence: 0.5,
			Triggers:   []string{"liability"},
		})
		doc.Embeddings = append(doc.Embeddings, domain.EmbeddingRecord{
			ClauseID: cid,
			Vector:   []float32{float32(i), 0.5, -1},
			Model:    "clausesense-hash-v1",
		})
	}
	return doc
}

func TestNewStore_CreatesDatabaseAndMigrates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	for _, table := range []string{"documents", "clauses", "embeddings", "reports"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestNewStore_ReopenKeepsVersion(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var rows int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store := setupTestStore(t)

	var enabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestClauseStore_ReplaceAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC)

	require.NoError(t, store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", at, 3)))

	docs, err := store.ClauseStore().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	got := docs[0]
	assert.Equal(t, "Acme", got.Document.Vendor)
	assert.True(t, got.Document.IngestedAt.Equal(at))
	assert.Equal(t, []string{"1. Term", "2. Fees"}, got.Document.Pages)
	assert.Equal(t, []float64{0.9, 0.8}, got.Document.OCRConfidence)
	require.Len(t, got.Clauses, 3)
	assert.Equal(t, "lead-in", got.Clauses[1].Context)
	assert.Equal(t, []string{"liability"}, got.Clauses[1].Triggers)
	assert.Equal(t, domain.ClauseLiabilityCap, got.Clauses[2].Type)
	require.Len(t, got.Embeddings, 3)
	assert.Equal(t, []float32{2, 0.5, -1}, got.Embeddings[2].Vector)
}

func TestClauseStore_ReplaceIsWholesaleAndKeepsReports(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", now, 3)))
	require.NoError(t, store.ReportStore().SaveReport(ctx, &domain.Report{DocumentID: "d1", Playbook: "standard", GeneratedAt: now}))
	require.NoError(t, store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", now, 1)))

	clauses, err := store.DocumentStore().GetClauses(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, clauses, 1)

	var vectors int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM embeddings").Scan(&vectors))
	assert.Equal(t, 1, vectors)

	_, err = store.ReportStore().GetReport(ctx, "d1")
	assert.NoError(t, err)
}

func TestClauseStore_FailedReplaceKeepsPriorState(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", now, 2)))

	broken := testDocument("d1", "Acme", now, 2)
	broken.Clauses[1].Ordinal = 0 // violates UNIQUE(document_id, ordinal)
	err := store.ClauseStore().ReplaceDocument(ctx, broken)
	require.Error(t, err)

	clauses, err := store.DocumentStore().GetClauses(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, clauses, 2)
}

func TestClauseStore_CancelledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", time.Now(), 1))
	require.Error(t, err)

	docs, err := store.ClauseStore().LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClauseStore_ReplaceRejectsEmptyID(t *testing.T) {
	store := setupTestStore(t)
	err := store.ClauseStore().ReplaceDocument(context.Background(), &domain.IndexedDocument{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClauseStore_DeleteCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", time.Now(), 2)))
	require.NoError(t, store.ReportStore().SaveReport(ctx, &domain.Report{DocumentID: "d1"}))

	require.NoError(t, store.ClauseStore().DeleteDocument(ctx, "d1"))

	for _, table := range []string{"documents", "clauses", "embeddings", "reports"} {
		var n int
		require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
	assert.ErrorIs(t, store.ClauseStore().DeleteDocument(ctx, "d1"), domain.ErrNotFound)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.DocumentStore().GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.DocumentStore().GetClauses(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListAndVendors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cs := store.ClauseStore()
	require.NoError(t, cs.ReplaceDocument(ctx, testDocument("d1", "Acme", base, 1)))
	require.NoError(t, cs.ReplaceDocument(ctx, testDocument("d2", "Globex", base.Add(time.Hour), 1)))
	require.NoError(t, cs.ReplaceDocument(ctx, testDocument("d3", "Acme", base.Add(2*time.Hour), 1)))

	docs, err := store.DocumentStore().ListDocuments(ctx, "")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"d3", "d2", "d1"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	assert.Nil(t, docs[0].Pages)

	docs, err = store.DocumentStore().ListDocuments(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d3", docs[0].ID)

	vendors, err := store.DocumentStore().ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 2)
	assert.Equal(t, "Acme", vendors[0].Vendor)
	assert.Equal(t, 2, vendors[0].DocumentCount)
	assert.True(t, vendors[0].LastIngested.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, "Globex", vendors[1].Vendor)
}

func TestReportStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ClauseStore().ReplaceDocument(ctx, testDocument("d1", "Acme", time.Now(), 1)))

	sim := 0.71
	findings := []domain.RiskFinding{{
		RuleID:   "AR-001",
		Severity: domain.SeverityCritical,
		Evidence: []domain.Evidence{{ClauseID: "d1-clause-0", Quote: "Clause", End: 6, Similarity: &sim}},
	}}
	report := &domain.Report{
		DocumentID:  "d1",
		Playbook:    "strict",
		Findings:    findings,
		Score:       domain.ScoreFindings(findings),
		Summary:     "summary",
		GeneratedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.ReportStore().SaveReport(ctx, report))

	got, err := store.ReportStore().GetReport(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "strict", got.Playbook)
	assert.Equal(t, domain.SeverityCritical, got.Score.MaxSeverity)
	assert.Equal(t, 1, got.Score.Counts[domain.SeverityCritical])
	require.Len(t, got.Findings, 1)
	require.NotNil(t, got.Findings[0].Evidence[0].Similarity)
	assert.InDelta(t, 0.71, *got.Findings[0].Evidence[0].Similarity, 1e-9)

	require.NoError(t, store.ReportStore().DeleteReports(ctx, "d1"))
	_, err = store.ReportStore().GetReport(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportStore_UnknownDocument(t *testing.T) {
	store := setupTestStore(t)
	err := store.ReportStore().SaveReport(context.Background(), &domain.Report{DocumentID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
