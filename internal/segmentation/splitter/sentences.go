package splitter

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// SentenceSplitter returns [start, end) byte spans of the sentences in text.
type SentenceSplitter interface {
	Split(text string) [][2]int
}

// ProseSplitter segments sentences with the prose tokenizer and falls back to
// a punctuation rule when prose fails or its output cannot be located in the
// source text.
type ProseSplitter struct {
	fallback RegexSplitter
}

// NewProseSplitter creates a prose-backed sentence splitter.
func NewProseSplitter() *ProseSplitter {
	return &ProseSplitter{}
}

// Split implements SentenceSplitter.
func (p *ProseSplitter) Split(text string) [][2]int {
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return p.fallback.Split(text)
	}

	var spans [][2]int
	cursor := 0
	for _, s := range doc.Sentences() {
		sent := strings.TrimSpace(s.Text)
		if sent == "" {
			continue
		}
		idx := strings.Index(text[cursor:], sent)
		if idx < 0 {
			return p.fallback.Split(text)
		}
		start := cursor + idx
		spans = append(spans, [2]int{start, start + len(sent)})
		cursor = start + len(sent)
	}
	if len(spans) == 0 {
		return p.fallback.Split(text)
	}
	// Keep anything prose dropped at the end in the last sentence.
	spans[len(spans)-1][1] = len(strings.TrimRight(text, " \n\t"))
	return spans
}

var sentenceEnd = regexp.MustCompile(`[.!?;]["')\]]?\s+`)

// RegexSplitter splits after terminal punctuation followed by whitespace.
type RegexSplitter struct{}

// Split implements SentenceSplitter.
func (RegexSplitter) Split(text string) [][2]int {
	var spans [][2]int
	prev := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		end := loc[1]
		for end > loc[0] && isSpace(text[end-1]) {
			end--
		}
		if end > prev {
			spans = append(spans, [2]int{prev, end})
		}
		prev = loc[1]
	}
	if prev < len(text) {
		spans = append(spans, [2]int{prev, len(text)})
	}
	return spans
}
