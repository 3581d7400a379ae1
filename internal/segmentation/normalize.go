package segmentation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxControlRatio is the share of control characters above which input is
// treated as a binary payload.
const MaxControlRatio = 0.1

var (
	hyphenBreak  = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
	inlineSpace  = regexp.MustCompile(`[ \t\x{00A0}\x{2000}-\x{200A}]+`)
	pageNumber   = regexp.MustCompile(`(?i)^(?:page\s+\d+(?:\s+of\s+\d+)?|-\s*\d+\s*-|\d+\s+of\s+\d+|\d{1,4})$`)
	blankRunFull = regexp.MustCompile(`\n{3,}`)
)

// validatePage returns a reason when a page is not text.
func validatePage(page string) string {
	if !utf8.ValidString(page) {
		return "invalid UTF-8"
	}
	if strings.ContainsRune(page, 0) {
		return "binary payload (NUL bytes)"
	}
	total, control := 0, 0
	for _, r := range page {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
			control++
		}
	}
	if total > 0 && float64(control)/float64(total) > MaxControlRatio {
		return "binary payload (control characters)"
	}
	return ""
}

// NormalizePage cleans extraction artifacts from one page of text.
func NormalizePage(page string) string {
	page = strings.ReplaceAll(page, "\r\n", "\n")
	page = strings.ReplaceAll(page, "\r", "\n")
	page = strings.ReplaceAll(page, "\f", "\n")
	page = hyphenBreak.ReplaceAllString(page, "$1$2")

	lines := strings.Split(page, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
		if pageNumber.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	page = strings.Join(kept, "\n")
	page = blankRunFull.ReplaceAllString(page, "\n\n")
	return strings.TrimSpace(page)
}

// Normalize cleans every page and joins the non-empty ones with a blank line.
// It returns the joined text plus the start offset and page number of each
// page that contributed text.
func Normalize(pages []string) (text string, starts, numbers []int) {
	var b strings.Builder
	for i, page := range pages {
		clean := NormalizePage(page)
		if clean == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		starts = append(starts, b.Len())
		numbers = append(numbers, i+1)
		b.WriteString(clean)
	}
	return b.String(), starts, numbers
}
