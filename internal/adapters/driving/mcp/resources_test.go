package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid document URI", uri: "clausesense://documents/doc-456", expected: "doc-456"},
		{name: "invalid prefix", uri: "file://documents/doc-456", expected: ""},
		{name: "nested path", uri: "clausesense://documents/doc-456/extra", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents as JSON", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{
			documents: []domain.Document{{ID: "doc-1", Vendor: "Acme", Title: "MSA"}},
		}})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("clausesense://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var docs []DocumentOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-1", docs[0].ID)
	})

	t.Run("without document service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("clausesense://documents"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentClausesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("renders clauses", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{
			document: &domain.Document{ID: "doc-1", Vendor: "Acme", Title: "Acme MSA"},
			clauses: []domain.Clause{
				{Ordinal: 0, Type: domain.ClauseAutoRenewal, Title: "Term", Text: "Renews automatically."},
				{Ordinal: 1, Type: domain.ClauseLiabilityCap, Text: "Liability is capped."},
			},
		}})

		result, err := server.handleDocumentClausesResource(ctx, makeReadResourceRequest("clausesense://documents/doc-1"))
		require.NoError(t, err)
		text := result.Contents[0].Text
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Contains(t, text, "Acme MSA (Acme)")
		assert.Contains(t, text, "[Clause 1: auto-renewal] Term\nRenews automatically.")
		assert.Contains(t, text, "[Clause 2: liability-cap]\nLiability is capped.")
	})

	t.Run("unknown document", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{getErr: domain.ErrNotFound}})
		_, err := server.handleDocumentClausesResource(ctx, makeReadResourceRequest("clausesense://documents/nope"))
		assert.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{}})
		_, err := server.handleDocumentClausesResource(ctx, makeReadResourceRequest("clausesense://other/doc-1"))
		assert.Error(t, err)
	})

	t.Run("without document service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, err := server.handleDocumentClausesResource(ctx, makeReadResourceRequest("clausesense://documents/doc-1"))
		assert.Error(t, err)
	})
}
