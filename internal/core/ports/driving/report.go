package driving

import (
	"context"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// ReportOptions configures report assembly.
type ReportOptions struct {
	// Playbook names the rule playbook. Empty uses the configured default.
	Playbook string

	// SkipLLM disables summary and negotiation generation.
	SkipLLM bool
}

// ReportService assesses contracts.
type ReportService interface {
	// Assess assembles a risk report. The report is non-nil whenever rule
	// evaluation ran; the error then joins non-fatal stage failures.
	Assess(ctx context.Context, documentID string, opts ReportOptions) (*domain.Report, error)

	// LatestReport returns the last stored report for a document.
	LatestReport(ctx context.Context, documentID string) (*domain.Report, error)

	// Ask answers a question using only the document's clauses as context.
	Ask(ctx context.Context, documentID, question string) (*domain.Answer, error)

	// Playbooks lists available playbooks.
	Playbooks() []domain.Playbook
}
