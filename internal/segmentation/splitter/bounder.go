package splitter

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ClauseProcessor = (*Bounder)(nil)

// DefaultMaxChars is the default upper bound on clause length.
const DefaultMaxChars = 1800

// DefaultOverlap is the default fraction of a piece carried into the next
// piece's Context.
const DefaultOverlap = 0.2

// ContinuedSuffix marks the title of a section continuation.
const ContinuedSuffix = " (cont.)"

// Bounder splits oversize segments: first at paragraphs, then sentences,
// finally fixed windows. Pieces after the first carry "(cont.)" titles and
// the tail of the previous piece as embedding context.
type Bounder struct {
	maxChars  int
	overlap   float64
	sentences SentenceSplitter
}

// Option configures the bounder.
type Option func(*Bounder)

// WithMaxChars sets the maximum clause length in bytes.
func WithMaxChars(n int) Option {
	return func(b *Bounder) {
		if n > 0 {
			b.maxChars = n
		}
	}
}

// WithOverlap sets the context overlap as a fraction of the piece length.
func WithOverlap(f float64) Option {
	return func(b *Bounder) {
		if f >= 0 && f < 1 {
			b.overlap = f
		}
	}
}

// WithSentenceSplitter replaces the sentence splitter.
func WithSentenceSplitter(s SentenceSplitter) Option {
	return func(b *Bounder) {
		if s != nil {
			b.sentences = s
		}
	}
}

// NewBounder creates a bounder with the given options.
func NewBounder(opts ...Option) *Bounder {
	b := &Bounder{
		maxChars:  DefaultMaxChars,
		overlap:   DefaultOverlap,
		sentences: NewProseSplitter(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.overlap >= 0.5 {
		b.overlap = DefaultOverlap
	}
	return b
}

// Name returns the processor name.
func (b *Bounder) Name() string {
	return "bound"
}

// MaxChars returns the configured bound.
func (b *Bounder) MaxChars() int {
	return b.maxChars
}

// Process splits every segment longer than the bound.
func (b *Bounder) Process(ctx context.Context, in *driven.SegmentationInput, segments []driven.Segment) ([]driven.Segment, error) {
	out := make([]driven.Segment, 0, len(segments))
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seg.End-seg.Start <= b.maxChars {
			out = append(out, seg)
			continue
		}
		pieces := b.split(in.Text, seg)
		for i := range pieces {
			pieces[i].Title = seg.Title
			if i > 0 {
				pieces[i].Title = strings.TrimSpace(seg.Title + ContinuedSuffix)
				pieces[i].Context = b.tail(pieces[i-1].Text)
			} else {
				pieces[i].Context = seg.Context
			}
		}
		out = append(out, pieces...)
	}
	return out, nil
}

// split breaks one oversize segment into bounded pieces.
func (b *Bounder) split(text string, seg driven.Segment) []driven.Segment {
	var units []driven.Segment
	for _, para := range Paragraphs(text, seg.Start, seg.End, "") {
		if para.End-para.Start <= b.maxChars {
			units = append(units, para)
			continue
		}
		for _, sent := range b.sentenceUnits(text, para) {
			if sent.End-sent.Start <= b.maxChars {
				units = append(units, sent)
				continue
			}
			units = append(units, b.windows(text, sent)...)
		}
	}
	return b.pack(text, units)
}

// sentenceUnits returns the sentences of a paragraph with exact offsets.
func (b *Bounder) sentenceUnits(text string, para driven.Segment) []driven.Segment {
	var out []driven.Segment
	for _, span := range b.sentences.Split(para.Text) {
		if seg, ok := makeSegment(text, para.Start+span[0], para.Start+span[1], ""); ok {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return []driven.Segment{para}
	}
	return out
}

// windows cuts a unit into fixed windows, preferring whitespace boundaries.
func (b *Bounder) windows(text string, unit driven.Segment) []driven.Segment {
	var out []driven.Segment
	start := unit.Start
	for start < unit.End {
		end := start + b.maxChars
		if end >= unit.End {
			end = unit.End
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			if end == start {
				_, size := utf8.DecodeRuneInString(text[start:])
				end = start + size
			}
			if ws := strings.LastIndexAny(text[start:end], " \n\t"); ws > b.maxChars/2 {
				end = start + ws
			}
		}
		if seg, ok := makeSegment(text, start, end, ""); ok {
			out = append(out, seg)
		}
		start = end
	}
	return out
}

// pack greedily joins adjacent units while the result stays within bounds.
func (b *Bounder) pack(text string, units []driven.Segment) []driven.Segment {
	var out []driven.Segment
	for _, u := range units {
		if n := len(out); n > 0 && u.End-out[n-1].Start <= b.maxChars {
			out[n-1].End = u.End
			out[n-1].Text = text[out[n-1].Start:u.End]
			continue
		}
		out = append(out, u)
	}
	return out
}

// tail returns roughly the last overlap fraction of s, starting at a word.
func (b *Bounder) tail(s string) string {
	n := int(float64(len(s)) * b.overlap)
	if n <= 0 {
		return ""
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	if ws := strings.IndexAny(s[cut:], " \n\t"); ws >= 0 && ws < n/2 {
		cut += ws
	}
	return strings.TrimSpace(s[cut:])
}
