// Package markdown extracts Markdown contracts. Formatting is stripped while
// heading text and clause numbering survive so the segmenter can find sections.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Generic MIME extractor, higher than plaintext
}

// Extract strips formatting and splits pages at form feeds.
func (e *Extractor) Extract(_ context.Context, data []byte) (*domain.Extraction, error) {
	if data == nil {
		return nil, domain.ErrInvalidInput
	}

	raw := string(data)
	var pages []string
	for _, page := range strings.Split(raw, "\f") {
		pages = append(pages, stripMarkdown(page))
	}

	return &domain.Extraction{
		Pages:    pages,
		MIMEType: "text/markdown",
		Title:    extractTitle(raw),
	}, nil
}

// extractTitle returns the first H1 heading.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

var (
	codeFence    = regexp.MustCompile("(?m)^```.*$")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|\b_)([^*_\n]+?)(\*\*|__|\*|_\b)`)
	blockquote   = regexp.MustCompile(`(?m)^>[ \t]?`)
	horizontal   = regexp.MustCompile(`(?m)^[ \t]*[-*_]{3,}[ \t]*$`)
	bullets      = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	tableDivider = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*$`)
	tablePipes   = regexp.MustCompile(`[ \t]*\|[ \t]*`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting. Numbered list markers are
// kept because contracts number their clauses that way.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = tableDivider.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Contains(line, "|") {
			line = strings.Trim(strings.TrimSpace(line), "|")
			line = strings.TrimSpace(tablePipes.ReplaceAllString(line, " "))
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
