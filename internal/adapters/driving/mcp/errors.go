// Package mcp provides an MCP (Model Context Protocol) server adapter for ClauseSense.
// It lets AI assistants search the clause library, assess contracts and ask
// questions grounded in a contract's clauses.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

var (
	// ErrReportsNotConfigured is returned by report tools when no report service is wired.
	ErrReportsNotConfigured = errors.New("mcp: report service not configured")

	// ErrDocumentsNotConfigured is returned by document tools when no document service is wired.
	ErrDocumentsNotConfigured = errors.New("mcp: document service not configured")
)
