// Package docx extracts Word documents. Paragraphs become lines separated by
// blank lines, and explicit page breaks start a new page.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrNoDocumentBody is returned when the archive has no word/document.xml.
var ErrNoDocumentBody = errors.New("docx: word/document.xml not found")

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads word/document.xml and docProps/core.xml from the archive.
func (e *Extractor) Extract(_ context.Context, data []byte) (*domain.Extraction, error) {
	if data == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	body, err := readFile(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, ErrNoDocumentBody
	}

	pages, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("parse word/document.xml: %w", err)
	}

	return &domain.Extraction{
		Pages:    pages,
		MIMEType: MIMEType,
		Title:    extractTitle(reader),
	}, nil
}

// readFile returns the named archive member, or nil when it is absent.
func readFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}

// parseDocumentXML streams the body so run text, tabs and breaks keep their
// document order.
func parseDocumentXML(content []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var pages []string
	var page, para strings.Builder
	inText := false

	flushPara := func() {
		if text := strings.TrimSpace(para.String()); text != "" {
			if page.Len() > 0 {
				page.WriteString("\n\n")
			}
			page.WriteString(text)
		}
		para.Reset()
	}
	breakPage := func() {
		flushPara()
		pages = append(pages, page.String())
		page.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				if attr(t, "type") == "page" {
					breakPage()
				} else {
					para.WriteString("\n")
				}
			case "pageBreakBefore":
				if v := attr(t, "val"); v == "" || v == "1" || v == "true" {
					breakPage()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushPara()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	flushPara()
	if page.Len() > 0 || len(pages) == 0 {
		pages = append(pages, page.String())
	}
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads the title from docProps/core.xml.
func extractTitle(reader *zip.Reader) string {
	content, err := readFile(reader, "docProps/core.xml")
	if err != nil || content == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
