package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// reportStore implements driven.ReportStore. Reports are stored as JSON.
type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// SaveReport replaces the stored report of the document.
func (s *reportStore) SaveReport(ctx context.Context, report *domain.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO reports (document_id, playbook, generated_at, body) VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			playbook = excluded.playbook,
			generated_at = excluded.generated_at,
			body = excluded.body
	`, report.DocumentID, report.Playbook, report.GeneratedAt.UnixNano(), string(body))
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// GetReport returns the stored report of a document.
func (s *reportStore) GetReport(ctx context.Context, documentID string) (*domain.Report, error) {
	var body string
	err := s.store.db.QueryRowContext(ctx, "SELECT body FROM reports WHERE document_id = ?", documentID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("unmarshalling report: %w", err)
	}
	return &report, nil
}

// DeleteReports removes the report of a document.
func (s *reportStore) DeleteReports(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM reports WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting reports: %w", err)
	}
	return nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
