package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
	"github.com/custodia-labs/clausesense/internal/retry"
	"github.com/custodia-labs/clausesense/internal/vecmath"
)

// libraryDoc is a document registry entry.
type libraryDoc struct {
	meta      domain.Document
	clauseIDs []string
}

// docLock is a reference-counted per-document mutex.
type docLock struct {
	mu   sync.Mutex
	refs int
}

// ClauseLibrary is the process-wide clause index: the document registry,
// clause metadata and one vector partition per embedding model.
//
// Writes go to the ClauseStore first. The in-memory maps are swapped only
// after the store commits, under a write lock held for the swap alone, so
// readers never see a half-applied document.
type ClauseLibrary struct {
	store driven.ClauseStore
	retry retry.Config

	locksMu sync.Mutex
	locks   map[string]*docLock

	mu      sync.RWMutex
	docs    map[string]*libraryDoc
	clauses map[string]domain.Clause
	vectors map[string]map[string][]float32 // model -> clause id -> unit vector
}

// NewClauseLibrary creates an empty library. A nil store keeps the library
// in memory only.
func NewClauseLibrary(store driven.ClauseStore) *ClauseLibrary {
	cfg := retry.DefaultConfig()
	cfg.Op = "clause store"
	cfg.Retryable = isStoreRetryable
	return &ClauseLibrary{
		store:   store,
		retry:   cfg,
		locks:   make(map[string]*docLock),
		docs:    make(map[string]*libraryDoc),
		clauses: make(map[string]domain.Clause),
		vectors: make(map[string]map[string][]float32),
	}
}

// SetRetryConfig replaces the store retry policy.
func (l *ClauseLibrary) SetRetryConfig(cfg retry.Config) {
	if cfg.Retryable == nil {
		cfg.Retryable = isStoreRetryable
	}
	l.retry = cfg
}

// isStoreRetryable excludes errors another attempt cannot fix.
func isStoreRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, domain.ErrInvalidInput) &&
		!errors.Is(err, domain.ErrNotFound)
}

// Load replaces the library contents with everything in the store.
func (l *ClauseLibrary) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	start := time.Now()
	all, err := l.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load clause library: %w", err)
	}

	docs := make(map[string]*libraryDoc, len(all))
	clauses := make(map[string]domain.Clause)
	vectors := make(map[string]map[string][]float32)
	for i := range all {
		addDocument(docs, clauses, vectors, &all[i])
	}

	l.mu.Lock()
	l.docs, l.clauses, l.vectors = docs, clauses, vectors
	l.mu.Unlock()

	logger.L().Info("clause library loaded",
		zap.Int("documents", len(docs)),
		zap.Int("clauses", len(clauses)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Insert adds or wholesale replaces a document with its clauses and vectors.
// On failure the library and the store keep their prior state.
func (l *ClauseLibrary) Insert(ctx context.Context, doc *domain.IndexedDocument) error {
	if err := validateIndexed(doc); err != nil {
		return err
	}
	unlock := l.lockDocument(doc.Document.ID)
	defer unlock()

	l.mu.RLock()
	err := l.checkDimensionsLocked(doc)
	l.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return &domain.IndexConsistencyError{DocumentID: doc.Document.ID, Op: "insert", Err: err}
	}
	if l.store != nil {
		err := retry.Do(ctx, l.retry, func() error {
			return l.store.ReplaceDocument(ctx, doc)
		})
		if err != nil {
			return &domain.IndexConsistencyError{DocumentID: doc.Document.ID, Op: "insert", Err: err}
		}
	}

	l.mu.Lock()
	removeDocument(l.docs, l.clauses, l.vectors, doc.Document.ID)
	addDocument(l.docs, l.clauses, l.vectors, doc)
	l.mu.Unlock()
	return nil
}

// Remove deletes a document and everything it owns.
// Returns ErrNotFound when neither the library nor the store knows it.
func (l *ClauseLibrary) Remove(ctx context.Context, documentID string) error {
	unlock := l.lockDocument(documentID)
	defer unlock()

	l.mu.RLock()
	_, known := l.docs[documentID]
	l.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return &domain.IndexConsistencyError{DocumentID: documentID, Op: "remove", Err: err}
	}
	if l.store != nil {
		err := retry.Do(ctx, l.retry, func() error {
			return l.store.DeleteDocument(ctx, documentID)
		})
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if !known {
				return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
			}
		case err != nil:
			return &domain.IndexConsistencyError{DocumentID: documentID, Op: "remove", Err: err}
		}
	} else if !known {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	l.mu.Lock()
	removeDocument(l.docs, l.clauses, l.vectors, documentID)
	l.mu.Unlock()
	return nil
}

// Search ranks the clauses embedded under model by cosine similarity to
// query. Ties break on ordinal then clause id. A query whose length differs
// from the partition's vectors returns *domain.IndexMismatchError.
func (l *ClauseLibrary) Search(model string, query []float32, filter domain.SearchFilter, topK int) ([]domain.ScoredClause, error) {
	topK = domain.NormaliseTopK(topK)
	q := vecmath.Normalize(query)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := l.checkModelLocked(model); err != nil {
		return nil, err
	}

	partition := l.vectors[model]
	if n := partitionDims(partition, nil); n > 0 && n != len(query) {
		return nil, &domain.IndexMismatchError{
			Configured: dimsLabel(model, len(query)),
			Found:      dimsLabel(model, n),
		}
	}
	results := make([]domain.ScoredClause, 0, len(partition))
	for clauseID, vec := range partition {
		c, ok := l.clauses[clauseID]
		if !ok {
			continue
		}
		doc := l.docs[c.DocumentID]
		if doc == nil || !filter.Matches(&c, doc.meta.Vendor) {
			continue
		}
		score := vecmath.Cosine(q, vec)
		if filter.MinScore != nil && score < *filter.MinScore {
			continue
		}
		results = append(results, domain.ScoredClause{
			Clause:        copyClause(c),
			Vendor:        doc.meta.Vendor,
			DocumentTitle: doc.meta.Title,
			Score:         score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Clause.Ordinal != b.Clause.Ordinal {
			return a.Clause.Ordinal < b.Clause.Ordinal
		}
		return a.Clause.ID < b.Clause.ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// CheckModel returns *domain.IndexMismatchError when the library holds
// vectors from a model other than the configured one.
func (l *ClauseLibrary) CheckModel(model string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.checkModelLocked(model)
}

func (l *ClauseLibrary) checkModelLocked(model string) error {
	var found []string
	for m, vecs := range l.vectors {
		if m != model && len(vecs) > 0 {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Strings(found)
	return &domain.IndexMismatchError{Configured: model, Found: found[0]}
}

// checkDimensionsLocked rejects embeddings whose length differs from the
// vectors already held under the same model. The clauses of the document
// being replaced do not count.
func (l *ClauseLibrary) checkDimensionsLocked(doc *domain.IndexedDocument) error {
	want := make(map[string]int)
	for _, e := range doc.Embeddings {
		if n, ok := want[e.Model]; ok && n != len(e.Vector) {
			return fmt.Errorf("%w: embeddings under %s mix %d and %d dimensions",
				domain.ErrInvalidInput, e.Model, n, len(e.Vector))
		}
		want[e.Model] = len(e.Vector)
	}

	var own map[string]bool
	if entry, ok := l.docs[doc.Document.ID]; ok {
		own = make(map[string]bool, len(entry.clauseIDs))
		for _, id := range entry.clauseIDs {
			own[id] = true
		}
	}
	for model, n := range want {
		if held := partitionDims(l.vectors[model], own); held > 0 && held != n {
			return fmt.Errorf("%w: %s vectors have %d dimensions, library holds %d",
				domain.ErrInvalidInput, model, n, held)
		}
	}
	return nil
}

// partitionDims returns the vector length of a partition, or 0 when it holds
// nothing outside skip.
func partitionDims(part map[string][]float32, skip map[string]bool) int {
	for id, vec := range part {
		if !skip[id] {
			return len(vec)
		}
	}
	return 0
}

func dimsLabel(model string, n int) string {
	return fmt.Sprintf("%s (%d dimensions)", model, n)
}

// Document returns a document with its clauses in ordinal order.
func (l *ClauseLibrary) Document(documentID string) (domain.Document, []domain.Clause, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	doc, ok := l.docs[documentID]
	if !ok {
		return domain.Document{}, nil, false
	}
	clauses := make([]domain.Clause, 0, len(doc.clauseIDs))
	for _, id := range doc.clauseIDs {
		clauses = append(clauses, copyClause(l.clauses[id]))
	}
	return doc.meta, clauses, true
}

// Documents returns every registered document, oldest first.
func (l *ClauseLibrary) Documents() []domain.Document {
	l.mu.RLock()
	out := make([]domain.Document, 0, len(l.docs))
	for _, d := range l.docs {
		out = append(out, d.meta)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].IngestedAt.Equal(out[j].IngestedAt) {
			return out[i].IngestedAt.Before(out[j].IngestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats describes the library. model is reported as the configured model.
func (l *ClauseLibrary) Stats(model string) domain.LibraryStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.LibraryStats{
		Documents: len(l.docs),
		Clauses:   len(l.clauses),
		Vectors:   make(map[string]int, len(l.vectors)),
		Model:     model,
	}
	for m, vecs := range l.vectors {
		if len(vecs) > 0 {
			stats.Vectors[m] = len(vecs)
		}
	}
	return stats
}

// lockDocument serialises writers of one document id.
func (l *ClauseLibrary) lockDocument(id string) func() {
	l.locksMu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &docLock{}
		l.locks[id] = lk
	}
	lk.refs++
	l.locksMu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.locksMu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, id)
		}
		l.locksMu.Unlock()
	}
}

// validateIndexed checks the ownership invariants of an insert.
func validateIndexed(doc *domain.IndexedDocument) error {
	if doc == nil || doc.Document.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	ids := make(map[string]bool, len(doc.Clauses))
	prevEnd := 0
	for i := range doc.Clauses {
		c := &doc.Clauses[i]
		if c.DocumentID != doc.Document.ID {
			return fmt.Errorf("%w: clause %s belongs to document %s", domain.ErrInvalidInput, c.ID, c.DocumentID)
		}
		if c.ID == "" || ids[c.ID] {
			return fmt.Errorf("%w: clause %d has an empty or duplicate id", domain.ErrInvalidInput, c.Ordinal)
		}
		if c.Start < prevEnd || c.End < c.Start {
			return fmt.Errorf("%w: clause %s span [%d,%d) overlaps", domain.ErrInvalidInput, c.ID, c.Start, c.End)
		}
		prevEnd = c.End
		ids[c.ID] = true
	}
	for _, e := range doc.Embeddings {
		if !ids[e.ClauseID] {
			return fmt.Errorf("%w: embedding for unknown clause %s", domain.ErrInvalidInput, e.ClauseID)
		}
		if e.Model == "" || len(e.Vector) == 0 {
			return fmt.Errorf("%w: embedding for clause %s has no model or vector", domain.ErrInvalidInput, e.ClauseID)
		}
	}
	return nil
}

func addDocument(docs map[string]*libraryDoc, clauses map[string]domain.Clause, vectors map[string]map[string][]float32, doc *domain.IndexedDocument) {
	entry := &libraryDoc{meta: doc.Document, clauseIDs: make([]string, 0, len(doc.Clauses))}
	entry.meta.Pages = nil
	entry.meta.OCRConfidence = nil
	entry.meta.ClauseCount = len(doc.Clauses)

	for i := range doc.Clauses {
		c := copyClause(doc.Clauses[i])
		clauses[c.ID] = c
		entry.clauseIDs = append(entry.clauseIDs, c.ID)
	}
	for _, e := range doc.Embeddings {
		part, ok := vectors[e.Model]
		if !ok {
			part = make(map[string][]float32)
			vectors[e.Model] = part
		}
		part[e.ClauseID] = vecmath.Normalize(e.Vector)
	}
	docs[doc.Document.ID] = entry
}

func removeDocument(docs map[string]*libraryDoc, clauses map[string]domain.Clause, vectors map[string]map[string][]float32, documentID string) {
	entry, ok := docs[documentID]
	if !ok {
		return
	}
	for _, id := range entry.clauseIDs {
		delete(clauses, id)
		for model, part := range vectors {
			delete(part, id)
			if len(part) == 0 {
				delete(vectors, model)
			}
		}
	}
	delete(docs, documentID)
}

func copyClause(c domain.Clause) domain.Clause {
	if c.Triggers != nil {
		c.Triggers = append([]string(nil), c.Triggers...)
	}
	return c
}
