package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

type healthResponse struct {
	Status string               `json:"status"`
	Stats  *domain.LibraryStats `json:"stats,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.ports.Index != nil {
		stats := s.ports.Index.Stats()
		resp.Stats = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadResult struct {
	Filename string           `json:"filename,omitempty"`
	Document *domain.Document `json:"document,omitempty"`
	Clauses  int              `json:"clauses"`
	Error    string           `json:"error,omitempty"`
}

// handleUpload accepts a multipart form with one or more "file" parts, or a
// raw body named by the filename query parameter.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	vendor := r.URL.Query().Get("vendor")
	title := r.URL.Query().Get("title")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := s.ports.Ingest.Ingest(r.Context(), driving.IngestRequest{
			Vendor:   vendor,
			Title:    title,
			Filename: r.URL.Query().Get("filename"),
			Data:     data,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, uploadResult{Filename: res.Document.Filename, Document: res.Document, Clauses: res.Clauses})
		return
	}

	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, err)
		return
	}
	if v := r.FormValue("vendor"); v != "" {
		vendor = v
	}
	if t := r.FormValue("title"); t != "" {
		title = t
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, fmt.Errorf("%w: no file parts in upload", domain.ErrInvalidInput))
		return
	}

	reqs := make([]driving.IngestRequest, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, err)
			return
		}
		req := driving.IngestRequest{Vendor: vendor, Filename: fh.Filename, Data: data}
		if len(files) == 1 {
			req.Title = title
		}
		reqs = append(reqs, req)
	}

	results := s.ports.Ingest.IngestBatch(r.Context(), reqs)
	out := make([]uploadResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = uploadResult{Filename: reqs[i].Filename, Document: res.Document, Clauses: res.Clauses}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			failed++
		}
	}

	status := http.StatusCreated
	switch {
	case failed == len(results) && len(results) == 1:
		writeError(w, results[0].Err)
		return
	case failed == len(results):
		status = http.StatusBadRequest
	case failed > 0:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Documents.List(r.Context(), r.URL.Query().Get("vendor"))
	if err != nil {
		writeError(w, err)
		return
	}
	// Page text is served through the clauses endpoint.
	for i := range docs {
		docs[i].Pages = nil
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ports.Documents.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePurgeDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Documents.Purge(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClauses(w http.ResponseWriter, r *http.Request) {
	clauses, err := s.ports.Documents.Clauses(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clauses)
}

type assessRequest struct {
	Playbook string `json:"playbook"`
	SkipLLM  bool   `json:"skip_llm"`
}

// handleAssess returns the report even when a later stage failed; the
// failure is listed in the report notes.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if p := r.URL.Query().Get("playbook"); p != "" {
		req.Playbook = p
	}

	report, err := s.ports.Reports.Assess(r.Context(), mux.Vars(r)["id"], driving.ReportOptions{
		Playbook: req.Playbook,
		SkipLLM:  req.SkipLLM,
	})
	if report == nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.ports.Reports.LatestReport(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	answer, err := s.ports.Reports.Ask(r.Context(), mux.Vars(r)["id"], req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type searchRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	Vendor      string   `json:"vendor"`
	DocumentIDs []string `json:"document_ids"`
	ClauseTypes []string `json:"clause_types"`
	MinScore    *float64 `json:"min_score"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	filter := domain.SearchFilter{Vendor: req.Vendor, DocumentIDs: req.DocumentIDs, MinScore: req.MinScore}
	for _, raw := range req.ClauseTypes {
		t, ok := domain.ParseClauseType(raw)
		if !ok {
			writeError(w, fmt.Errorf("%w: unknown clause type %q", domain.ErrInvalidInput, raw))
			return
		}
		filter.ClauseTypes = append(filter.ClauseTypes, t)
	}

	results, err := s.ports.Retrieval.Search(r.Context(), req.Query, req.TopK, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.ScoredClause{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.ports.Documents.Vendors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

type playbookView struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Enable      []string                   `json:"enable,omitempty"`
	Disable     []string                   `json:"disable,omitempty"`
	Severities  map[string]domain.Severity `json:"severities,omitempty"`
	ExtraRules  int                        `json:"extra_rules,omitempty"`
}

func (s *Server) handlePlaybooks(w http.ResponseWriter, _ *http.Request) {
	playbooks := s.ports.Reports.Playbooks()
	out := make([]playbookView, len(playbooks))
	for i, p := range playbooks {
		out[i] = playbookView{
			Name:        p.Name,
			Description: p.Description,
			Enable:      p.Enable,
			Disable:     p.Disable,
			Severities:  p.Severities,
			ExtraRules:  len(p.Extra),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.ports.Index.Reindex(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reindexed": n})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// decodeOptional accepts an empty body.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: decoding request body: %v", domain.ErrInvalidInput, err)
}
