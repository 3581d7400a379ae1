package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func TestDocumentCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range documentCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "get", "clauses", "purge"} {
		assert.True(t, names[want], want)
	}
}

func TestDocumentList(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "document", "list", "--vendor", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", ts.documents.vendor)
	assert.Contains(t, out, "Documents:")
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Acme MSA (2 clauses)")
}

func TestDocumentList_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.documents = nil

	out, err := runCLI(t, "document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested.")
}

func TestDocumentList_JSONOmitsPages(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "document", "list", "--json")
	require.NoError(t, err)

	var docs []domain.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Empty(t, docs[0].Pages)
}

func TestDocumentGet(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "document", "get", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-1")
	assert.Contains(t, out, "Title: Acme MSA")
	assert.Contains(t, out, "File: acme.txt")
	assert.Contains(t, out, "Pages: 1")
	assert.Contains(t, out, "Clauses: 2")

	_, err = runCLI(t, "document", "get", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentClauses(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "document", "clauses", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] auto-renewal (0.90) Term")
	assert.Contains(t, out, "[2] liability-cap (0.80)")
	assert.Contains(t, out, "Liability shall not exceed the fees paid.")
}

func TestDocumentPurge(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCLI(t, "document", "purge", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Purged document doc-1")
	assert.Equal(t, []string{"doc-1"}, ts.documents.purged)

	ts.documents.err = errService
	_, err = runCLI(t, "document", "purge", "doc-1")
	assert.ErrorIs(t, err, errService)
}

func TestDocumentCmd_NotConfigured(t *testing.T) {
	SetServices(nil)

	for _, args := range [][]string{
		{"document", "list"},
		{"document", "get", "x"},
		{"document", "clauses", "x"},
		{"document", "purge", "x"},
		{"vendors"},
	} {
		_, err := runCLI(t, args...)
		assert.ErrorContains(t, err, "document service not configured", args)
	}
}
