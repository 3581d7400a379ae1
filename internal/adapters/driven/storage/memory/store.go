// Package memory provides in-memory implementations of the storage ports.
// Nothing survives a restart; it backs tests and the "memory" storage backend.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.ClauseStore   = (*Store)(nil)
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.ReportStore   = (*Store)(nil)
)

// Store keeps indexed documents and reports in maps guarded by one lock.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.IndexedDocument
	reports   map[string]domain.Report
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.IndexedDocument),
		reports:   make(map[string]domain.Report),
	}
}

// ReplaceDocument stores a copy of doc, replacing any previous version.
func (s *Store) ReplaceDocument(ctx context.Context, doc *domain.IndexedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil || doc.Document.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.Document.ID] = copyIndexed(*doc)
	return nil
}

// DeleteDocument removes a document with its clauses, vectors and reports.
func (s *Store) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, documentID)
	delete(s.reports, documentID)
	return nil
}

// LoadAll returns every stored document, oldest first.
func (s *Store) LoadAll(_ context.Context) ([]domain.IndexedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IndexedDocument, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, copyIndexed(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Document.IngestedAt.Before(out[j].Document.IngestedAt)
	})
	return out, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d := copyIndexed(doc).Document
	return &d, nil
}

// GetClauses retrieves the clauses of a document in ordinal order.
func (s *Store) GetClauses(_ context.Context, documentID string) ([]domain.Clause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyIndexed(doc).Clauses, nil
}

// ListDocuments returns documents newest first, optionally for one vendor.
func (s *Store) ListDocuments(_ context.Context, vendor string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Document
	for _, doc := range s.documents {
		if vendor != "" && !strings.EqualFold(doc.Document.Vendor, strings.TrimSpace(vendor)) {
			continue
		}
		d := doc.Document
		d.Pages = nil
		d.OCRConfidence = nil
		out = append(out, d)
	}
	sortNewestFirst(out)
	return out, nil
}

// ListVendors returns vendors with document counts, alphabetically.
func (s *Store) ListVendors(_ context.Context) ([]domain.VendorSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byVendor := make(map[string]*domain.VendorSummary)
	for _, doc := range s.documents {
		v, ok := byVendor[doc.Document.Vendor]
		if !ok {
			v = &domain.VendorSummary{Vendor: doc.Document.Vendor}
			byVendor[doc.Document.Vendor] = v
		}
		v.DocumentCount++
		if doc.Document.IngestedAt.After(v.LastIngested) {
			v.LastIngested = doc.Document.IngestedAt
		}
	}
	out := make([]domain.VendorSummary, 0, len(byVendor))
	for _, v := range byVendor {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vendor < out[j].Vendor })
	return out, nil
}

// SaveReport stores the latest report for its document.
func (s *Store) SaveReport(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[report.DocumentID]; !ok {
		return domain.ErrNotFound
	}
	s.reports[report.DocumentID] = *report
	return nil
}

// GetReport returns the latest report for a document.
func (s *Store) GetReport(_ context.Context, documentID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// DeleteReports removes the reports of a document.
func (s *Store) DeleteReports(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, documentID)
	return nil
}

func sortNewestFirst(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].IngestedAt.Equal(docs[j].IngestedAt) {
			return docs[i].IngestedAt.After(docs[j].IngestedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

// copyIndexed copies the slices of an indexed document so callers cannot
// mutate stored state.
func copyIndexed(in domain.IndexedDocument) domain.IndexedDocument {
	out := in
	out.Document.Pages = append([]string(nil), in.Document.Pages...)
	out.Document.OCRConfidence = append([]float64(nil), in.Document.OCRConfidence...)
	out.Clauses = make([]domain.Clause, len(in.Clauses))
	for i, c := range in.Clauses {
		c.Triggers = append([]string(nil), c.Triggers...)
		out.Clauses[i] = c
	}
	out.Embeddings = make([]domain.EmbeddingRecord, len(in.Embeddings))
	for i, e := range in.Embeddings {
		e.Vector = append([]float32(nil), e.Vector...)
		out.Embeddings[i] = e
	}
	return out
}
