package mcp

import (
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the MCP server.
type Ports struct {
	// Retrieval provides clause search.
	Retrieval driving.RetrievalService

	// Reports assesses contracts and answers questions.
	Reports driving.ReportService

	// Documents lists ingested contracts and their clauses.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Reports and Documents are optional; their tools report unavailability.
	return nil
}
