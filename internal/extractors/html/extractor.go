package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Generic MIME extractor, higher than plaintext
}

var (
	skipped = map[string]bool{
		"script": true, "style": true, "noscript": true, "svg": true,
		"template": true, "iframe": true, "head": true, "#comment": true,
	}
	blocks = map[string]bool{
		"p": true, "div": true, "section": true, "article": true, "blockquote": true,
		"pre": true, "table": true, "tr": true, "ul": true, "ol": true, "li": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"hr": true, "dl": true, "dt": true, "dd": true, "header": true, "footer": true,
	}
	cells = map[string]bool{"td": true, "th": true}

	pageBreakStyle = regexp.MustCompile(`(?i)(?:page-break-before|break-before)\s*:\s*(?:always|page)`)
	inlineSpace    = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// Extract converts HTML to page text. The <title> (or first <h1>) becomes the
// extraction title.
func (e *Extractor) Extract(_ context.Context, data []byte) (*domain.Extraction, error) {
	if data == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	walk(doc.Find("body"), &b)

	var pages []string
	for _, page := range strings.Split(b.String(), "\f") {
		pages = append(pages, cleanText(page))
	}

	return &domain.Extraction{
		Pages:    pages,
		MIMEType: "text/html",
		Title:    extractTitle(doc),
	}, nil
}

// walk writes the readable text below s into b.
func walk(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case name == "br":
			b.WriteString("\n")
		case skipped[name]:
		case blocks[name]:
			if style, ok := c.Attr("style"); ok && pageBreakStyle.MatchString(style) {
				b.WriteString("\f")
			}
			b.WriteString("\n\n")
			walk(c, b)
			b.WriteString("\n\n")
		case cells[name]:
			walk(c, b)
			b.WriteString(" ")
		default:
			walk(c, b)
		}
	})
}

// cleanText collapses inline whitespace, trims lines and keeps at most one
// blank line between paragraphs.
func cleanText(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
