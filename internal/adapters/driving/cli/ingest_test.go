package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func writeContract(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("1. Term. This Agreement renews automatically."), 0o644))
	return path
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file...]", ingestCmd.Use)
	assert.NotNil(t, ingestCmd.Flags().Lookup("vendor"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("title"))
}

func TestIngestCmd_SingleFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	path := writeContract(t, t.TempDir(), "acme.txt")

	out, err := runCLI(t, "ingest", "--vendor", "Acme", "--title", "Acme MSA", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Ingested "Acme MSA" (doc-1): 3 clauses`)

	require.Len(t, ts.ingest.requests, 1)
	req := ts.ingest.requests[0]
	assert.Equal(t, "Acme", req.Vendor)
	assert.Equal(t, "Acme MSA", req.Title)
	assert.Equal(t, path, req.Filename)
	assert.Contains(t, string(req.Data), "renews automatically")
}

func TestIngestCmd_Batch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	a := writeContract(t, dir, "a.txt")
	b := writeContract(t, dir, "b.txt")
	ts.ingest.batchErr = map[int]error{1: domain.ErrExtraction}

	out, err := runCLI(t, "ingest", "--vendor", "Acme", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "clauses")
	assert.Contains(t, out, b+": FAILED")
	assert.Len(t, ts.ingest.requests, 2)
}

func TestIngestCmd_Validation(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	a := writeContract(t, dir, "a.txt")
	b := writeContract(t, dir, "b.txt")

	_, err := runCLI(t, "ingest", a)
	assert.ErrorContains(t, err, "--vendor is required")

	_, err = runCLI(t, "ingest", "--vendor", "Acme", "--title", "x", a, b)
	assert.ErrorContains(t, err, "single file")

	_, err = runCLI(t, "ingest", "--vendor", "Acme", filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = runCLI(t, "ingest")
	assert.ErrorContains(t, err, "requires at least 1 arg(s)")
}

func TestIngestCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.err = &domain.SegmentationError{DocumentID: "doc-9", Reason: "binary content"}
	path := writeContract(t, t.TempDir(), "a.txt")

	_, err := runCLI(t, "ingest", "--vendor", "Acme", path)
	assert.ErrorIs(t, err, domain.ErrSegmentation)
}
