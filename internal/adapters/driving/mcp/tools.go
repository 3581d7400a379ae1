package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

// SearchClausesInput is the input schema for the search_clauses tool.
type SearchClausesInput struct {
	Query       string   `json:"query" jsonschema:"natural language description of the clause to find"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"maximum number of clauses to return (default 5, max 100)"`
	Vendor      string   `json:"vendor,omitempty" jsonschema:"restrict results to one vendor"`
	DocumentID  string   `json:"document_id,omitempty" jsonschema:"restrict results to one contract"`
	ClauseTypes []string `json:"clause_types,omitempty" jsonschema:"restrict results to clause types such as liability-cap or auto-renewal"`
}

// SearchClausesOutput is the output schema for the search_clauses tool.
type SearchClausesOutput struct {
	Results []ClauseResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// ClauseResultOutput represents a single retrieved clause.
type ClauseResultOutput struct {
	ClauseID      string  `json:"clause_id"`
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Vendor        string  `json:"vendor"`
	Ordinal       int     `json:"ordinal"`
	Type          string  `json:"type"`
	Score         float64 `json:"score"`
	Text          string  `json:"text"`
	URI           string  `json:"uri"`
}

// AssessContractInput is the input schema for the assess_contract tool.
type AssessContractInput struct {
	DocumentID string `json:"document_id" jsonschema:"the contract to assess"`
	Playbook   string `json:"playbook,omitempty" jsonschema:"review playbook: standard, strict, light or a custom name"`
	SkipLLM    bool   `json:"skip_llm,omitempty" jsonschema:"skip the generated summary and negotiation draft"`
}

// AssessContractOutput is the output schema for the assess_contract tool.
type AssessContractOutput struct {
	DocumentID  string          `json:"document_id"`
	Vendor      string          `json:"vendor"`
	Title       string          `json:"title"`
	Playbook    string          `json:"playbook"`
	Health      int             `json:"health"`
	Level       string          `json:"level"`
	MaxSeverity string          `json:"max_severity"`
	Findings    []FindingOutput `json:"findings"`
	Warnings    []string        `json:"warnings,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Negotiation string          `json:"negotiation,omitempty"`
	Notes       []string        `json:"notes,omitempty"`
}

// FindingOutput is one risk finding with its clause evidence.
type FindingOutput struct {
	RuleID         string           `json:"rule_id"`
	Title          string           `json:"title"`
	Severity       string           `json:"severity"`
	ClauseType     string           `json:"clause_type"`
	Rationale      string           `json:"rationale"`
	Recommendation string           `json:"recommendation,omitempty"`
	Evidence       []EvidenceOutput `json:"evidence"`
}

// EvidenceOutput quotes the clause a finding rests on.
type EvidenceOutput struct {
	ClauseID string `json:"clause_id"`
	Clause   int    `json:"clause"`
	Quote    string `json:"quote"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Vendor string `json:"vendor,omitempty" jsonschema:"only list contracts from this vendor"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises an ingested contract.
type DocumentOutput struct {
	ID          string `json:"id"`
	Vendor      string `json:"vendor"`
	Title       string `json:"title"`
	ClauseCount int    `json:"clause_count"`
	IngestedAt  string `json:"ingested_at"`
	URI         string `json:"uri"`
}

// AskContractInput is the input schema for the ask_contract tool.
type AskContractInput struct {
	DocumentID string `json:"document_id" jsonschema:"the contract to ask about"`
	Question   string `json:"question" jsonschema:"question answered only from the contract's clauses"`
}

// AskContractOutput is the output schema for the ask_contract tool.
type AskContractOutput struct {
	Answer  string               `json:"answer"`
	Sources []ClauseResultOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_clauses",
		Description: "Semantic search over clauses of all ingested contracts",
	}, s.handleSearchClauses)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assess_contract",
		Description: "Run the risk rules against a contract and return findings with clause evidence",
	}, s.handleAssessContract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List ingested contracts",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_contract",
		Description: "Answer a question about a contract using only its clauses",
	}, s.handleAskContract)
}

// handleSearchClauses handles the search_clauses tool invocation.
func (s *Server) handleSearchClauses(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchClausesInput,
) (*mcp.CallToolResult, SearchClausesOutput, error) {
	filter := domain.SearchFilter{Vendor: input.Vendor}
	if input.DocumentID != "" {
		filter.DocumentIDs = []string{input.DocumentID}
	}
	for _, raw := range input.ClauseTypes {
		t, ok := domain.ParseClauseType(raw)
		if !ok {
			return nil, SearchClausesOutput{}, fmt.Errorf("%w: unknown clause type %q", domain.ErrInvalidInput, raw)
		}
		filter.ClauseTypes = append(filter.ClauseTypes, t)
	}

	results, err := s.ports.Retrieval.Search(ctx, input.Query, input.TopK, filter)
	if err != nil {
		return nil, SearchClausesOutput{}, err
	}

	output := SearchClausesOutput{
		Results: clauseResults(results),
		Count:   len(results),
	}

	return nil, output, nil
}

// handleAssessContract handles the assess_contract tool invocation.
// Non-fatal stage failures are already listed in the report notes, so a
// report is returned whenever one was produced.
func (s *Server) handleAssessContract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessContractInput,
) (*mcp.CallToolResult, AssessContractOutput, error) {
	if s.ports.Reports == nil {
		return nil, AssessContractOutput{}, ErrReportsNotConfigured
	}

	report, err := s.ports.Reports.Assess(ctx, input.DocumentID, driving.ReportOptions{
		Playbook: input.Playbook,
		SkipLLM:  input.SkipLLM,
	})
	if report == nil {
		return nil, AssessContractOutput{}, err
	}
	return nil, reportOutput(report), nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Documents == nil {
		return nil, ListDocumentsOutput{}, ErrDocumentsNotConfigured
	}

	docs, err := s.ports.Documents.List(ctx, input.Vendor)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:          docs[i].ID,
			Vendor:      docs[i].Vendor,
			Title:       docs[i].Title,
			ClauseCount: docs[i].ClauseCount,
			IngestedAt:  docs[i].IngestedAt.UTC().Format("2006-01-02T15:04:05Z"),
			URI:         documentURI(docs[i].ID),
		}
	}
	return nil, output, nil
}

// handleAskContract handles the ask_contract tool invocation.
func (s *Server) handleAskContract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskContractInput,
) (*mcp.CallToolResult, AskContractOutput, error) {
	if s.ports.Reports == nil {
		return nil, AskContractOutput{}, ErrReportsNotConfigured
	}

	answer, err := s.ports.Reports.Ask(ctx, input.DocumentID, input.Question)
	if err != nil {
		return nil, AskContractOutput{}, err
	}
	return nil, AskContractOutput{Answer: answer.Text, Sources: clauseResults(answer.Sources)}, nil
}

func clauseResults(results []domain.ScoredClause) []ClauseResultOutput {
	out := make([]ClauseResultOutput, len(results))
	for i := range results {
		c := &results[i].Clause
		out[i] = ClauseResultOutput{
			ClauseID:      c.ID,
			DocumentID:    c.DocumentID,
			DocumentTitle: results[i].DocumentTitle,
			Vendor:        results[i].Vendor,
			Ordinal:       c.Ordinal,
			Type:          c.Type.String(),
			Score:         results[i].Score,
			Text:          c.Text,
			URI:           documentURI(c.DocumentID),
		}
	}
	return out
}

func reportOutput(r *domain.Report) AssessContractOutput {
	out := AssessContractOutput{
		DocumentID:  r.DocumentID,
		Vendor:      r.Vendor,
		Title:       r.Title,
		Playbook:    r.Playbook,
		Health:      r.Score.Health,
		Level:       r.Score.Level,
		MaxSeverity: r.Score.MaxSeverity.String(),
		Findings:    make([]FindingOutput, len(r.Findings)),
		Summary:     r.Summary,
		Negotiation: r.Negotiation,
		Notes:       r.Notes,
	}
	for i, f := range r.Findings {
		fo := FindingOutput{
			RuleID:         f.RuleID,
			Title:          f.Title,
			Severity:       f.Severity.String(),
			ClauseType:     f.ClauseType.String(),
			Rationale:      f.Rationale,
			Recommendation: f.Recommendation,
			Evidence:       make([]EvidenceOutput, len(f.Evidence)),
		}
		for j, ev := range f.Evidence {
			// Ordinals are zero-based; clause numbers shown to users are not.
			fo.Evidence[j] = EvidenceOutput{ClauseID: ev.ClauseID, Clause: ev.Ordinal + 1, Quote: ev.Quote}
		}
		out.Findings[i] = fo
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}
