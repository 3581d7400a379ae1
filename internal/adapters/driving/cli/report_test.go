package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func TestReportCmd_Use(t *testing.T) {
	assert.Equal(t, "report [document-id]", reportCmd.Use)
	for _, name := range []string{"playbook", "json", "skip-llm", "latest"} {
		assert.NotNil(t, reportCmd.Flags().Lookup(name), name)
	}
}

func TestReportCmd_Renders(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "report", "--playbook", "strict", "--skip-llm", "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "strict", ts.reports.opts.Playbook)
	assert.True(t, ts.reports.opts.SkipLLM)

	assert.Contains(t, out, "Risk report: Acme MSA (Acme)")
	assert.Contains(t, out, "Health: 85/100  Risk: low  Findings: 1")
	assert.Contains(t, out, "Parties: Acme Corp")
	assert.Contains(t, out, "[high] AR-001 Auto-renewal without notice window")
	assert.Contains(t, out, "Recommendation: Add a 60-day")
	assert.Contains(t, out, `Clause 1: "renews automatically"`)
	assert.Contains(t, out, "A one-year services agreement.")
	assert.Contains(t, out, "Note: evidence truncated")
}

func TestReportCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "report", "--json", "doc-1")
	require.NoError(t, err)

	var got domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "doc-1", got.DocumentID)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, domain.SeverityHigh, got.Findings[0].Severity)
}

func TestReportCmd_Latest(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCLI(t, "report", "--latest", "doc-1")
	require.NoError(t, err)
	assert.True(t, ts.reports.latest)
}

func TestReportCmd_PartialFailurePrintsReport(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.reports.err = errors.New("summary: rate limited")

	out, err := runCLI(t, "report", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "AR-001")
	assert.Contains(t, out, "Warning: summary: rate limited")
}

func TestReportCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.reports.report = nil
	ts.reports.err = domain.ErrNotFound

	_, err := runCLI(t, "report", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportCmd_NoFindings(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.reports.report = &domain.Report{DocumentID: "doc-2", Score: domain.ScoreFindings(nil)}

	out, err := runCLI(t, "report", "doc-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Health: 100/100")
	assert.Contains(t, out, "No risks found.")
}

func TestAskCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.reports.answer.Sources = []domain.ScoredClause{{Clause: domain.Clause{Ordinal: 1, Text: "Liability shall not exceed the fees paid."}, Score: 0.71}}

	out, err := runCLI(t, "ask", "doc-1", "What", "is", "the", "cap?")
	require.NoError(t, err)
	assert.Equal(t, []string{"What is the cap?"}, ts.reports.questions)
	assert.Contains(t, out, "Twelve months of fees.")
	assert.Contains(t, out, "clause 2 (0.71)")

	ts.reports.err = domain.ErrLLMUnavailable
	_, err = runCLI(t, "ask", "doc-1", "cap?")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	_, err = runCLI(t, "ask", "doc-1")
	assert.Error(t, err)
}

func TestReportStyles_PlainOutsideTerminal(t *testing.T) {
	st := newReportStyles(new(bytesWriter))
	assert.Equal(t, "critical", st.Severity(domain.SeverityCritical))
	assert.Equal(t, "medium", st.Level(domain.RiskLevelMedium))
	assert.Equal(t, "unknown", st.Level("unknown"))
}

type bytesWriter struct{}

func (bytesWriter) Write(p []byte) (int, error) { return len(p), nil }
