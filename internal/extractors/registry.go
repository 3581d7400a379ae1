package extractors

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/logger"
)

// Verify interface compliance.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// MIME types with dedicated extractors.
const (
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensionTypes = map[string]string{
	".txt":      MIMEPlain,
	".text":     MIMEPlain,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".htm":      MIMEHTML,
	".html":     MIMEHTML,
	".xhtml":    "application/xhtml+xml",
	".docx":     MIMEDOCX,
}

// Registry dispatches uploads to extractors by MIME type.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
	maxBytes   int64
}

// NewRegistry creates a registry rejecting payloads above maxBytes.
// A non-positive limit disables the check.
func NewRegistry(maxBytes int64) *Registry {
	return &Registry{maxBytes: maxBytes}
}

// Register adds an extractor. Extractors are kept in descending priority.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, e)
	sort.SliceStable(r.extractors, func(i, j int) bool {
		return r.extractors[i].Priority() > r.extractors[j].Priority()
	})
}

// SupportedMIMETypes returns all MIME types that can be extracted, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, e := range r.extractors {
		for _, t := range e.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// Extract detects the upload's type and runs the best extractor.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (*domain.Extraction, error) {
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrTooLarge, len(data), r.maxBytes)
	}

	mimeType := DetectMIME(filename, data)
	e := r.find(mimeType)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType)
	}

	logger.Debug("extract %s as %s", filename, mimeType)
	out, err := e.Extract(ctx, data)
	if err != nil {
		return nil, err
	}
	if out.MIMEType == "" {
		out.MIMEType = mimeType
	}
	return out, nil
}

// find returns the highest priority extractor for mimeType. Unknown text/*
// types fall back to whatever handles text/plain.
func (r *Registry) find(mimeType string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lookup := func(t string) driven.Extractor {
		for _, e := range r.extractors {
			for _, supported := range e.SupportedMIMETypes() {
				if supported == t {
					return e
				}
			}
		}
		return nil
	}

	if e := lookup(mimeType); e != nil {
		return e
	}
	if strings.HasPrefix(mimeType, "text/") {
		return lookup(MIMEPlain)
	}
	return nil
}

// DetectMIME infers the MIME type from the file extension, falling back to
// content sniffing. Parameters such as charset are dropped.
func DetectMIME(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t := ""
	if ext != "" {
		t = mime.TypeByExtension(ext)
	}
	if t == "" {
		t = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(t); err == nil {
		return mediaType
	}
	return t
}

// TitleFromFilename derives a readable title from an upload's file name.
func TitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
