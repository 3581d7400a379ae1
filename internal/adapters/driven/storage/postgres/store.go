// Package postgres stores the clause library in PostgreSQL with vectors in
// pgvector columns. It serves the same ports as the SQLite store and lets
// several processes share one library.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
)

//go:embed schema.sql
var schema string

// DefaultConnectTimeout bounds the initial ping and schema setup.
const DefaultConnectTimeout = 10 * time.Second

// Ensure Store implements the interfaces.
var (
	_ driven.ClauseStore   = (*Store)(nil)
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.ReportStore   = (*Store)(nil)
)

// Store is a PostgreSQL clause store.
type Store struct {
	db *sql.DB
}

// NewStore connects with a lib/pq DSN and creates the schema if needed.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidInput)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	logger.Debug("postgres store ready")
	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceDocument upserts the document and swaps its clauses and vectors in
// one transaction.
func (s *Store) ReplaceDocument(ctx context.Context, doc *domain.IndexedDocument) error {
	if doc == nil || doc.Document.ID == "" {
		return domain.ErrInvalidInput
	}
	d := doc.Document

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, vendor, title, filename, pages, ocr_confidence, clause_count, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			vendor = EXCLUDED.vendor,
			title = EXCLUDED.title,
			filename = EXCLUDED.filename,
			pages = EXCLUDED.pages,
			ocr_confidence = EXCLUDED.ocr_confidence,
			clause_count = EXCLUDED.clause_count,
			ingested_at = EXCLUDED.ingested_at
	`, d.ID, d.Vendor, d.Title, d.Filename, pq.Array(nonNil(d.Pages)), pq.Array(d.OCRConfidence), d.ClauseCount, d.IngestedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clauses WHERE document_id = $1`, d.ID); err != nil {
		return fmt.Errorf("deleting previous clauses: %w", err)
	}

	for i := range doc.Clauses {
		c := &doc.Clauses[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clauses (id, document_id, ordinal, title, text, context, start_offset, end_offset, page, type, confidence, triggers)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, c.ID, d.ID, c.Ordinal, c.Title, c.Text, c.Context, c.Start, c.End, c.Page, string(c.Type), c.Confidence, pq.Array(nonNil(c.Triggers)))
		if err != nil {
			return fmt.Errorf("inserting clause %d: %w", c.Ordinal, err)
		}
	}

	for _, e := range doc.Embeddings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (clause_id, model, embedding) VALUES ($1, $2, $3)
		`, e.ClauseID, e.Model, pgvector.NewVector(e.Vector))
		if err != nil {
			return fmt.Errorf("inserting embedding for %s: %w", e.ClauseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document %s: %w", d.ID, err)
	}
	return nil
}

// DeleteDocument removes a document; clauses, vectors and reports cascade.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LoadAll returns every document with its clauses and vectors, oldest first.
func (s *Store) LoadAll(ctx context.Context) ([]domain.IndexedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY ingested_at, id`)
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

	clauses, err := s.queryClauses(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, c := range clauses {
		if i, ok := index[c.DocumentID]; ok {
			docs[i].Clauses = append(docs[i].Clauses, c)
		}
	}

	vrows, err := s.db.QueryContext(ctx, `
		SELECT c.document_id, e.clause_id, e.model, e.embedding
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
		var vec pgvector.Vector
		if err := vrows.Scan(&documentID, &rec.ClauseID, &rec.Model, &vec); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		rec.Vector = vec.Slice()
		if i, ok := index[documentID]; ok {
			docs[i].Embeddings = append(docs[i].Embeddings, rec)
		}
	}
	return docs, vrows.Err()
}

// GetDocument retrieves a document with its pages.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
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
func (s *Store) GetClauses(ctx context.Context, documentID string) ([]domain.Clause, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, documentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking document: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return s.queryClauses(ctx, documentID)
}

// ListDocuments returns documents newest first without page text.
func (s *Store) ListDocuments(ctx context.Context, vendor string) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if v := strings.TrimSpace(vendor); v != "" {
		query += ` WHERE lower(vendor) = lower($1)`
		args = append(args, v)
	}
	query += ` ORDER BY ingested_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// ListVendors returns vendors with document counts, alphabetically.
func (s *Store) ListVendors(ctx context.Context) ([]domain.VendorSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor, COUNT(*), MAX(ingested_at) FROM documents GROUP BY vendor ORDER BY vendor
	`)
	if err != nil {
		return nil, fmt.Errorf("querying vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.VendorSummary
	for rows.Next() {
		var v domain.VendorSummary
		if err := rows.Scan(&v.Vendor, &v.DocumentCount, &v.LastIngested); err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		v.LastIngested = v.LastIngested.UTC()
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// SaveReport replaces the stored report of the document.
func (s *Store) SaveReport(ctx context.Context, report *domain.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (document_id, playbook, generated_at, body) VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE SET
			playbook = EXCLUDED.playbook,
			generated_at = EXCLUDED.generated_at,
			body = EXCLUDED.body
	`, report.DocumentID, report.Playbook, report.GeneratedAt.UTC(), body)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// GetReport returns the stored report of a document.
func (s *Store) GetReport(ctx context.Context, documentID string) (*domain.Report, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE document_id = $1`, documentID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("unmarshalling report: %w", err)
	}
	return &report, nil
}

// DeleteReports removes the report of a document.
func (s *Store) DeleteReports(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting reports: %w", err)
	}
	return nil
}

// NearestClauses ranks the stored clauses of one model by cosine similarity
// to query with pgvector's <=> operator. Results carry the clause text and
// document metadata but no offsets.
func (s *Store) NearestClauses(ctx context.Context, model string, query []float32, limit int) ([]domain.ScoredClause, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.ordinal, c.title, c.text, c.type, d.vendor, d.title,
			1 - (e.embedding <=> $2) AS score
		FROM embeddings e
		JOIN clauses c ON c.id = e.clause_id
		JOIN documents d ON d.id = c.document_id
		WHERE e.model = $1
		ORDER BY e.embedding <=> $2, c.ordinal, c.id
		LIMIT $3
	`, model, pgvector.NewVector(query), domain.NormaliseTopK(limit))
	if err != nil {
		return nil, fmt.Errorf("querying nearest clauses: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredClause
	for rows.Next() {
		var sc domain.ScoredClause
		var clauseType string
		err := rows.Scan(&sc.Clause.ID, &sc.Clause.DocumentID, &sc.Clause.Ordinal, &sc.Clause.Title,
			&sc.Clause.Text, &clauseType, &sc.Vendor, &sc.DocumentTitle, &sc.Score)
		if err != nil {
			return nil, fmt.Errorf("scanning clause: %w", err)
		}
		sc.Clause.Type = domain.ClauseType(clauseType)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) queryClauses(ctx context.Context, documentID string) ([]domain.Clause, error) {
	query := `SELECT id, document_id, ordinal, title, text, context, start_offset, end_offset,
		page, type, confidence, triggers FROM clauses`
	var args []any
	if documentID != "" {
		query += ` WHERE document_id = $1`
		args = append(args, documentID)
	}
	query += ` ORDER BY document_id, ordinal`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying clauses: %w", err)
	}
	defer rows.Close()

	var clauses []domain.Clause
	for rows.Next() {
		var c domain.Clause
		var clauseType string
		err := rows.Scan(&c.ID, &c.DocumentID, &c.Ordinal, &c.Title, &c.Text, &c.Context,
			&c.Start, &c.End, &c.Page, &clauseType, &c.Confidence, pq.Array(&c.Triggers))
		if err != nil {
			return nil, fmt.Errorf("scanning clause: %w", err)
		}
		c.Type = domain.ClauseType(clauseType)
		clauses = append(clauses, c)
	}
	return clauses, rows.Err()
}

const documentColumns = "id, vendor, title, filename, pages, ocr_confidence, clause_count, ingested_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner, withPages bool) (*domain.Document, error) {
	var d domain.Document
	var pages []string
	var ocr []float64
	err := row.Scan(&d.ID, &d.Vendor, &d.Title, &d.Filename, pq.Array(&pages), pq.Array(&ocr), &d.ClauseCount, &d.IngestedAt)
	if err != nil {
		return nil, err
	}
	d.IngestedAt = d.IngestedAt.UTC()
	if withPages {
		d.Pages = pages
		d.OCRConfidence = ocr
	}
	return &d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
