package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/vecmath"
)

// clauseStore implements driven.ClauseStore.
type clauseStore struct {
	store *Store
}

var _ driven.ClauseStore = (*clauseStore)(nil)

// ReplaceDocument upserts the document row and swaps its clauses and vectors
// in one transaction. Stored reports survive a replace.
func (s *clauseStore) ReplaceDocument(ctx context.Context, doc *domain.IndexedDocument) error {
	if doc == nil || doc.Document.ID == "" {
		return domain.ErrInvalidInput
	}
	d := doc.Document

	pagesJSON, err := json.Marshal(d.Pages)
	if err != nil {
		return fmt.Errorf("marshalling pages: %w", err)
	}
	ocrJSON, err := json.Marshal(d.OCRConfidence)
	if err != nil {
		return fmt.Errorf("marshalling ocr confidence: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, vendor, title, filename, pages, ocr_confidence, clause_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vendor = excluded.vendor,
			title = excluded.title,
			filename = excluded.filename,
			pages = excluded.pages,
			ocr_confidence = excluded.ocr_confidence,
			clause_count = excluded.clause_count,
			ingested_at = excluded.ingested_at
	`, d.ID, d.Vendor, d.Title, d.Filename, string(pagesJSON), string(ocrJSON), d.ClauseCount, d.IngestedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM clauses WHERE document_id = ?", d.ID); err != nil {
		return fmt.Errorf("deleting previous clauses: %w", err)
	}

	clauseStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clauses (id, document_id, ordinal, title, text, context, start_offset, end_offset, page, type, confidence, triggers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing clause insert: %w", err)
	}
	defer clauseStmt.Close()

	for i := range doc.Clauses {
		c := &doc.Clauses[i]
		triggersJSON, err := json.Marshal(c.Triggers)
		if err != nil {
			return fmt.Errorf("marshalling triggers: %w", err)
		}
		_, err = clauseStmt.ExecContext(ctx, c.ID, d.ID, c.Ordinal, c.Title, c.Text, c.Context,
			c.Start, c.End, c.Page, string(c.Type), c.Confidence, string(triggersJSON))
		if err != nil {
			return fmt.Errorf("inserting clause %d: %w", c.Ordinal, err)
		}
	}

	vecStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (clause_id, model, dimensions, vector) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer vecStmt.Close()

	for _, e := range doc.Embeddings {
		if _, err := vecStmt.ExecContext(ctx, e.ClauseID, e.Model, len(e.Vector), vecmath.Encode(e.Vector)); err != nil {
			return fmt.Errorf("inserting embedding for %s: %w", e.ClauseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document %s: %w", d.ID, err)
	}
	return nil
}

// DeleteDocument removes a document; clauses, vectors and reports cascade.
func (s *clauseStore) DeleteDocument(ctx context.Context, documentID string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LoadAll returns every document with its clauses and vectors, oldest first.
func (s *clauseStore) LoadAll(ctx context.Context) ([]domain.IndexedDocument, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents ORDER BY ingested_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	var docs []domain.IndexedDocument
	index := make(map[string]int)
	for rows.Next() {
		d, err := scanDocument(rows, true)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[d.ID] = len(docs)
		docs = append(docs, domain.IndexedDocument{Document: *d})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	clauses, err := queryClauses(ctx, s.store.db, "")
	if err != nil {
		return nil, err
	}
	for _, c := range clauses {
		if i, ok := index[c.DocumentID]; ok {
			docs[i].Clauses = append(docs[i].Clauses, c)
		}
	}

	vrows, err := s.store.db.QueryContext(ctx, `
		SELECT c.document_id, e.clause_id, e.model, e.vector
		FROM embeddings e JOIN clauses c ON c.id = e.clause_id
		ORDER BY c.document_id, c.ordinal, e.model
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var documentID string
		var rec domain.EmbeddingRecord
		var blob []byte
		if err := vrows.Scan(&documentID, &rec.ClauseID, &rec.Model, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		rec.Vector = vecmath.Decode(blob)
		if i, ok := index[documentID]; ok {
			docs[i].Embeddings = append(docs[i].Embeddings, rec)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return docs, nil
}

// queryClauses returns clauses in (document, ordinal) order, optionally for
// one document.
func queryClauses(ctx context.Context, db *sql.DB, documentID string) ([]domain.Clause, error) {
	query := `SELECT id, document_id, ordinal, title, text, context, start_offset, end_offset,
		page, type, confidence, triggers FROM clauses`
	var args []any
	if documentID != "" {
		query += " WHERE document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY document_id, ordinal"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying clauses: %w", err)
	}
	defer rows.Close()

	var clauses []domain.Clause
	for rows.Next() {
		var c domain.Clause
		var clauseType, triggersJSON string
		err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &c.Title, &c.Text, &c.Context,
			&c.Start, &c.End, &c.Page, &clauseType, &c.Confidence, &triggersJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning clause: %w", err)
		}
		c.Type = domain.ClauseType(clauseType)
		if err := json.Unmarshal([]byte(triggersJSON), &c.Triggers); err != nil {
			return nil, fmt.Errorf("unmarshalling triggers: %w", err)
		}
		clauses = append(clauses, c)
	}
	return clauses, rows.Err()
}

// documentColumns is the column list read by scanDocument.
const documentColumns = "id, vendor, title, filename, pages, ocr_confidence, clause_count, ingested_at"

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument reads one documents row. Page text is decoded only when
// withPages is set.
func scanDocument(row scanner, withPages bool) (*domain.Document, error) {
	var d domain.Document
	var pagesJSON, ocrJSON string
	var ingestedAt int64
	err := row.Scan(&d.ID, &d.Vendor, &d.Title, &d.Filename, &pagesJSON, &ocrJSON, &d.ClauseCount, &ingestedAt)
	if err != nil {
		return nil, err
	}
	d.IngestedAt = time.Unix(0, ingestedAt).UTC()
	if withPages {
		if err := json.Unmarshal([]byte(pagesJSON), &d.Pages); err != nil {
			return nil, fmt.Errorf("unmarshalling pages: %w", err)
		}
		if err := json.Unmarshal([]byte(ocrJSON), &d.OCRConfidence); err != nil {
			return nil, fmt.Errorf("unmarshalling ocr confidence: %w", err)
		}
	}
	return &d, nil
}
