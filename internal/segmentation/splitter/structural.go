// Package splitter provides the clause boundary stages of the segmentation
// pipeline: a structural splitter driven by headings and paragraphs, and a
// bounder that keeps every clause under a maximum size.
package splitter

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ClauseProcessor = (*Structural)(nil)

// MaxHeadingChars is the longest line still treated as an all-caps heading.
const MaxHeadingChars = 80

var (
	// numberedHeading matches "1.", "1.1", "12.3.4", "(a)", "a)", "ARTICLE IV", "Section 5".
	numberedHeading = regexp.MustCompile(
		`^(?:(?i:article|section|clause)\s+(?:\d+|[IVXLC]+)\b|\d+\.(?:\d+\.?)*|\d+(?:\.\d+)+|\([a-z]{1,2}\)|\([ivx]{1,4}\)|[a-z]\))(?:\s|$)`)

	paragraphBreak = regexp.MustCompile(`\n{2,}`)
)

// Structural splits normalised text at headings. Text without any heading is
// split into blank-line-delimited paragraphs instead.
type Structural struct{}

// NewStructural creates the structural splitter.
func NewStructural() *Structural {
	return &Structural{}
}

// Name returns the processor name.
func (s *Structural) Name() string {
	return "structure"
}

// Process creates segments from the document text. Input segments are ignored.
func (s *Structural) Process(_ context.Context, in *driven.SegmentationInput, _ []driven.Segment) ([]driven.Segment, error) {
	text := in.Text
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var starts []int
	var titles []string
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if IsHeading(trimmed) {
			starts = append(starts, offset)
			titles = append(titles, headingTitle(trimmed))
		}
		offset += len(line)
	}

	if len(starts) == 0 {
		return Paragraphs(text, 0, len(text), ""), nil
	}

	var segments []driven.Segment
	if starts[0] > 0 {
		segments = append(segments, Paragraphs(text, 0, starts[0], "")...)
	}
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if seg, ok := makeSegment(text, start, end, titles[i]); ok {
			segments = append(segments, seg)
		}
	}

	return mergeHeadingOnly(segments, text), nil
}

// IsHeading reports whether a trimmed line opens a new section.
func IsHeading(line string) bool {
	if line == "" {
		return false
	}
	if numberedHeading.MatchString(line) {
		return true
	}
	return isCapsHeading(line)
}

// isCapsHeading accepts short ALL-CAPS lines with at least five letters.
func isCapsHeading(line string) bool {
	if len(line) > MaxHeadingChars || strings.HasSuffix(line, ".") {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 5
}

// headingTitle shortens a heading line to a display title. Numbered
// headings followed by body text keep only the caption ("3. Fees.").
func headingTitle(line string) string {
	if loc := numberedHeading.FindStringIndex(line); loc != nil {
		if idx := strings.Index(line[loc[1]:], ". "); idx >= 0 && loc[1]+idx+1 <= MaxHeadingChars {
			return line[:loc[1]+idx+1]
		}
	}
	if len(line) <= MaxHeadingChars {
		return line
	}
	cut := strings.LastIndex(line[:MaxHeadingChars], " ")
	if cut <= 0 {
		cut = MaxHeadingChars
	}
	return strings.TrimSpace(line[:cut]) + "…"
}

// Paragraphs splits text[start:end] at blank lines into trimmed segments.
func Paragraphs(text string, start, end int, title string) []driven.Segment {
	var out []driven.Segment
	region := text[start:end]
	prev := 0
	for _, loc := range paragraphBreak.FindAllStringIndex(region, -1) {
		if seg, ok := makeSegment(text, start+prev, start+loc[0], title); ok {
			out = append(out, seg)
		}
		prev = loc[1]
	}
	if seg, ok := makeSegment(text, start+prev, end, title); ok {
		out = append(out, seg)
	}
	return out
}

// makeSegment trims text[start:end] and keeps offsets exact.
func makeSegment(text string, start, end int, title string) (driven.Segment, bool) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	if start >= end {
		return driven.Segment{}, false
	}
	return driven.Segment{Title: title, Text: text[start:end], Start: start, End: end}, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}

// mergeHeadingOnly folds a segment holding nothing but its heading into the
// following segment so a bare "ARTICLE 5" never becomes a clause.
func mergeHeadingOnly(segments []driven.Segment, text string) []driven.Segment {
	out := make([]driven.Segment, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		if !strings.Contains(seg.Text, "\n") && seg.Title != "" && i+1 < len(segments) &&
			strings.TrimSpace(seg.Text) == seg.Title {
			next := segments[i+1]
			next.Start = seg.Start
			next.Text = text[next.Start:next.End]
			next.Title = seg.Title + " / " + next.Title
			segments[i+1] = next
			continue
		}
		out = append(out, seg)
	}
	return out
}
