package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Ingest outcomes reported to the metrics recorder.
const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeExtraction   = "extraction"
	OutcomeSegmentation = "segmentation"
	OutcomeIndex        = "index"
)

// IngestService runs extract → segment → index for uploaded contracts.
type IngestService struct {
	extractors driven.ExtractorRegistry
	segmenter  driven.Segmenter
	indexer    *Indexer
	metrics    driven.MetricsRecorder
	workers    int

	newID func() string
	now   func() time.Time
}

// NewIngestService creates an ingest service. workers bounds IngestBatch
// concurrency; zero or less uses domain.DefaultWorkers.
func NewIngestService(
	extractors driven.ExtractorRegistry,
	segmenter driven.Segmenter,
	indexer *Indexer,
	workers int,
) *IngestService {
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}
	return &IngestService{
		extractors: extractors,
		segmenter:  segmenter,
		indexer:    indexer,
		workers:    workers,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// SetMetrics attaches a metrics recorder.
func (s *IngestService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Ingest extracts, segments and indexes one uploaded contract.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	vendor := strings.TrimSpace(req.Vendor)
	if vendor == "" {
		s.record(OutcomeInvalid)
		return nil, fmt.Errorf("%w: vendor is required", domain.ErrInvalidInput)
	}
	if s.extractors == nil {
		s.record(OutcomeExtraction)
		return nil, fmt.Errorf("%w: no extractors configured", domain.ErrUnsupportedType)
	}

	docID := s.newID()
	start := time.Now()
	ext, err := s.extractors.Extract(ctx, req.Filename, req.Data)
	if err != nil {
		s.record(OutcomeExtraction)
		return nil, &domain.ExtractionError{DocumentID: docID, Err: err}
	}
	s.observe("extract", start)

	doc := domain.Document{
		ID:            docID,
		Vendor:        vendor,
		Title:         documentTitle(req.Title, ext.Title, req.Filename),
		Filename:      filepath.Base(req.Filename),
		Pages:         ext.Pages,
		OCRConfidence: ext.OCRConfidence,
	}
	if req.Filename == "" {
		doc.Filename = ""
	}
	return s.ingest(ctx, &doc)
}

// IngestPages indexes page text extracted elsewhere.
func (s *IngestService) IngestPages(ctx context.Context, vendor, title string, pages []string) (*driving.IngestResult, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		s.record(OutcomeInvalid)
		return nil, fmt.Errorf("%w: vendor is required", domain.ErrInvalidInput)
	}
	doc := domain.Document{
		ID:     s.newID(),
		Vendor: vendor,
		Title:  documentTitle(title, "", ""),
		Pages:  pages,
	}
	return s.ingest(ctx, &doc)
}

// IngestBatch ingests requests concurrently with a bounded number of
// workers. Results keep request order; failures are reported per result.
func (s *IngestService) IngestBatch(ctx context.Context, reqs []driving.IngestRequest) []driving.IngestResult {
	results := make([]driving.IngestResult, len(reqs))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range reqs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = driving.IngestResult{Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			res, err := s.Ingest(ctx, reqs[idx])
			if err != nil {
				results[idx] = driving.IngestResult{Err: err}
				return
			}
			results[idx] = *res
		}(i)
	}

	wg.Wait()
	return results
}

func (s *IngestService) ingest(ctx context.Context, doc *domain.Document) (*driving.IngestResult, error) {
	doc.IngestedAt = s.now().UTC()

	start := time.Now()
	clauses, err := s.segmenter.Segment(ctx, doc.ID, doc.Pages)
	if err != nil {
		s.record(OutcomeSegmentation)
		return nil, err
	}
	s.observe("segment", start)
	doc.ClauseCount = len(clauses)

	if _, err := s.indexer.IndexClauses(ctx, doc, clauses); err != nil {
		s.record(OutcomeIndex)
		return nil, fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	s.record(OutcomeOK)
	logger.L().Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("vendor", doc.Vendor),
		zap.Int("clauses", len(clauses)))

	out := *doc
	out.Pages = nil
	out.OCRConfidence = nil
	return &driving.IngestResult{Document: &out, Clauses: len(clauses)}, nil
}

func (s *IngestService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.DocumentIngested(outcome)
	}
}

func (s *IngestService) observe(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, time.Since(start))
	}
}

// documentTitle picks the first non-empty of the requested title, the
// extracted title and the file name without extension.
func documentTitle(requested, extracted, filename string) string {
	if t := strings.TrimSpace(requested); t != "" {
		return t
	}
	if t := strings.TrimSpace(extracted); t != "" {
		return t
	}
	if filename != "" {
		base := filepath.Base(filename)
		if t := strings.TrimSuffix(base, filepath.Ext(base)); t != "" {
			return t
		}
	}
	return "Untitled contract"
}
