package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// GetDocument retrieves a document with its pages.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	d, err := scanDocument(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return d, nil
}

// GetClauses retrieves the clauses of a document in ordinal order.
func (s *documentStore) GetClauses(ctx context.Context, documentID string) ([]domain.Clause, error) {
	var exists int
	err := s.store.db.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", documentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking document: %w", err)
	}
	return queryClauses(ctx, s.store.db, documentID)
}

// ListDocuments returns documents newest first without page text.
func (s *documentStore) ListDocuments(ctx context.Context, vendor string) ([]domain.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	var args []any
	if v := strings.TrimSpace(vendor); v != "" {
		query += " WHERE lower(vendor) = lower(?)"
		args = append(args, v)
	}
	query += " ORDER BY ingested_at DESC, id ASC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// ListVendors returns vendors with document counts, alphabetically.
func (s *documentStore) ListVendors(ctx context.Context) ([]domain.VendorSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT vendor, COUNT(*), MAX(ingested_at) FROM documents
		GROUP BY vendor ORDER BY vendor
	`)
	if err != nil {
		return nil, fmt.Errorf("querying vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.VendorSummary
	for rows.Next() {
		var v domain.VendorSummary
		var last int64
		if err := rows.Scan(&v.Vendor, &v.DocumentCount, &last); err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		v.LastIngested = time.Unix(0, last).UTC()
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}
