package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for ClauseSense resources.
const uriScheme = "clausesense://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "All ingested contracts",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-clauses",
		Description: "Numbered clauses of a contract",
		MIMEType:    "text/plain",
	}, s.handleDocumentClausesResource)
}

// handleDocumentsResource returns a JSON list of ingested contracts.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	text := "[]"
	if s.ports.Documents != nil {
		_, out, err := s.handleListDocuments(ctx, nil, ListDocumentsInput{})
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		data, err := json.MarshalIndent(out.Documents, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling documents: %w", err)
		}
		text = string(data)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}

// handleDocumentClausesResource renders a contract's clauses as plain text.
func (s *Server) handleDocumentClausesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.Get(ctx, docID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	clauses, err := s.ports.Documents.Clauses(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting clauses: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n", doc.Title, doc.Vendor)
	for i := range clauses {
		c := &clauses[i]
		fmt.Fprintf(&b, "[Clause %d: %s]", c.Ordinal+1, c.Type)
		if c.Title != "" {
			fmt.Fprintf(&b, " %s", c.Title)
		}
		fmt.Fprintf(&b, "\n%s\n\n", c.Text)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.TrimRight(b.String(), "\n"),
		}},
	}, nil
}

func documentURI(documentID string) string {
	return uriScheme + "documents/" + documentID
}

// extractDocumentID extracts the document ID from a URI like clausesense://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
