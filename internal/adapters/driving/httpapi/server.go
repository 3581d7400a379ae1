// Package httpapi exposes ClauseSense over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// ErrMissingService is returned when a required driving port is nil.
var ErrMissingService = errors.New("httpapi: ingest, document, report and retrieval services are required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Ingest    driving.IngestService
	Documents driving.DocumentService
	Reports   driving.ReportService
	Retrieval driving.RetrievalService

	// Index is optional; without it /v1/reindex is not routed.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil || p.Documents == nil || p.Reports == nil || p.Retrieval == nil {
		return ErrMissingService
	}
	return nil
}

// Options configures optional endpoints and limits.
type Options struct {
	// MaxUploadBytes bounds request bodies on upload. Zero uses the default.
	MaxUploadBytes int64

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// MCP is mounted under /mcp when set.
	MCP http.Handler
}

// Server routes HTTP requests to the driving ports.
type Server struct {
	ports  *Ports
	opts   Options
	router *mux.Router
}

// NewServer builds the router.
func NewServer(ports *Ports, opts Options) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = int64(domain.DefaultMaxUploadMB) << 20
	}

	s := &Server{ports: ports, opts: opts, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestLogger)
	r.Use(recoverer)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics).Methods(http.MethodGet)
	}
	if s.opts.MCP != nil {
		r.PathPrefix("/mcp").Handler(s.opts.MCP)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/documents", s.handleUpload).Methods(http.MethodPost)
	v1.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}", s.handleGetDocument).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}", s.handlePurgeDocument).Methods(http.MethodDelete)
	v1.HandleFunc("/documents/{id}/clauses", s.handleClauses).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}/report", s.handleAssess).Methods(http.MethodPost)
	v1.HandleFunc("/documents/{id}/report", s.handleLatestReport).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}/ask", s.handleAsk).Methods(http.MethodPost)
	v1.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	v1.HandleFunc("/vendors", s.handleVendors).Methods(http.MethodGet)
	v1.HandleFunc("/playbooks", s.handlePlaybooks).Methods(http.MethodGet)
	if s.ports.Index != nil {
		v1.HandleFunc("/reindex", s.handleReindex).Methods(http.MethodPost)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.L().Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.L().Info("http api listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
