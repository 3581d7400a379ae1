package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/clausesense/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/retry"
	"github.com/custodia-labs/clausesense/internal/segmentation"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts listed in vectors get that vector; everything else gets fallback.
type mockEmbeddingService struct {
	model    string
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	delay    time.Duration
	calls    int
	mu       sync.Mutex
}

func (m *mockEmbeddingService) lookup(text string) []float32 {
	for prefix, v := range m.vectors {
		if strings.HasPrefix(text, prefix) {
			return v
		}
	}
	return m.fallback
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.lookup(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model == "" {
		return "mock-model"
	}
	return m.model
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response string
	err      error
	prompts  []string
	messages []driven.ChatMessage
	mu       sync.Mutex
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.response, m.err
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.messages = messages
	m.mu.Unlock()
	return m.response, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// flakyClauseStore fails ReplaceDocument/DeleteDocument a set number of times.
type flakyClauseStore struct {
	*memory.Store
	failures int
	err      error
	attempts int
}

func (f *flakyClauseStore) ReplaceDocument(ctx context.Context, doc *domain.IndexedDocument) error {
	f.attempts++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return f.err
	}
	return f.Store.ReplaceDocument(ctx, doc)
}

func (f *flakyClauseStore) DeleteDocument(ctx context.Context, documentID string) error {
	f.attempts++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return f.err
	}
	return f.Store.DeleteDocument(ctx, documentID)
}

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	mu       sync.Mutex
	outcomes []string
	indexed  int
	searches int
	findings map[string]int
	warnings []string
	stages   map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{findings: map[string]int{}, stages: map[string]int{}}
}

func (m *mockMetrics) DocumentIngested(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockMetrics) ClausesIndexed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed += n
}

func (m *mockMetrics) SearchPerformed(int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
}

func (m *mockMetrics) FindingEmitted(severity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings[severity]++
}

func (m *mockMetrics) RuleWarning(ruleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, ruleID)
}

func (m *mockMetrics) ObserveStage(stage string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[stage]++
}

// mockPlaybookSource implements driven.PlaybookSource for testing.
type mockPlaybookSource struct {
	playbooks []domain.Playbook
	err       error
}

func (m *mockPlaybookSource) LoadPlaybooks() ([]domain.Playbook, error) {
	return m.playbooks, m.err
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("no prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockExtractorRegistry implements driven.ExtractorRegistry for testing.
type mockExtractorRegistry struct {
	extraction *domain.Extraction
	err        error
}

func (m *mockExtractorRegistry) Extract(_ context.Context, _ string, data []byte) (*domain.Extraction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.extraction != nil {
		return m.extraction, nil
	}
	return &domain.Extraction{Pages: strings.Split(string(data), "\f"), MIMEType: "text/plain"}, nil
}

func (m *mockExtractorRegistry) Register(driven.Extractor) {}

func (m *mockExtractorRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// --- Fixtures ---

// sampleContract auto-renews, has no notice clause, short payment terms and
// a capped liability clause.
const sampleContract = `1. Term. This Agreement shall automatically renew for successive one-year renewal terms.

2. Fees. All invoices are due within fifteen (15) days of receipt.

3. Limitation of Liability. Vendor's liability shall not exceed the fees paid in the preceding twelve (12) months.`

// engine bundles the real collaborators used across service tests.
type engine struct {
	store     *memory.Store
	library   *ClauseLibrary
	embedder  driven.EmbeddingService
	indexer   *Indexer
	retrieval *RetrievalService
	segmenter *segmentation.Segmenter
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	store := memory.NewStore()
	library := NewClauseLibrary(store)
	embedder := hashing.NewEmbeddingService(hashing.Config{})
	seg, err := segmentation.NewDefault(segmentation.Config{
		MaxChars: domain.DefaultMaxClauseChars,
		Overlap:  domain.DefaultWindowOverlap,
	})
	require.NoError(t, err)
	return &engine{
		store:     store,
		library:   library,
		embedder:  embedder,
		indexer:   NewIndexer(library, embedder, store, time.Second),
		retrieval: NewRetrievalService(library, embedder, time.Second),
		segmenter: seg,
	}
}

// ingest segments and indexes text as one document.
func (e *engine) ingest(t *testing.T, id, vendor, text string) (*domain.Document, []domain.Clause) {
	t.Helper()
	ctx := context.Background()
	clauses, err := e.segmenter.Segment(ctx, id, []string{text})
	require.NoError(t, err)
	doc := &domain.Document{
		ID:         id,
		Vendor:     vendor,
		Title:      "MSA " + id,
		Pages:      []string{text},
		IngestedAt: time.Now().UTC(),
	}
	_, err = e.indexer.IndexClauses(ctx, doc, clauses)
	require.NoError(t, err)
	return doc, clauses
}

// fastRetry keeps store retries quick in tests.
func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

// simpleDoc builds an indexed document with one clause per vector.
func simpleDoc(id, vendor, model string, vectors ...[]float32) *domain.IndexedDocument {
	doc := &domain.IndexedDocument{Document: domain.Document{ID: id, Vendor: vendor, Title: id, IngestedAt: time.Now()}}
	for i, v := range vectors {
		cid := id + "-" + string(rune('a'+i))
		doc.Clauses = append(doc.Clauses, domain.Clause{
			ID: cid, DocumentID: id, Ordinal: i, Text: "clause " + cid,
			Start: i * 10, End: i*10 + 5, Type: domain.ClauseTermination,
		})
		doc.Embeddings = append(doc.Embeddings, domain.EmbeddingRecord{ClauseID: cid, Vector: v, Model: model})
	}
	return doc
}
