// Package segment locates rechtsoverweging headers and cuts the document
// into numbered blocks.
package segment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/iracify/iracify/internal/domain"
)

// DefaultFallbackMaxFirst bounds the first component of a bare numeric
// header. Page numbers, years, and list markers outside 1..50 are not
// plausible paragraph numbers.
const DefaultFallbackMaxFirst = 50

var (
	// Explicit marker: "r.o. 3.3", "ro 4", "rov. 2.1.1" (case-insensitive).
	markerRe = regexp.MustCompile(`(?i)\b(?:r\.?o\.?|rov\.)\s*(\d+(?:\.\d+){0,3})\b`)

	// Bare numbered heading at line start followed by a delimiter.
	// RE2 has no lookahead, so the delimiter is captured and the header
	// end is taken from the end of the number group.
	bareRe = regexp.MustCompile(`(?m)^(\d+(?:\.\d+){0,3})[\s:—-]`)

	leadPunctRe = regexp.MustCompile(`^\s*[:\-—]\s*`)
)

// DetectHeaders finds rechtsoverweging markers in normalized text and
// returns them ordered by document position. Explicit r.o./rov. markers
// win; only when none exist does the bare numeric fallback activate,
// guarded by maxFirst (<= 0 means DefaultFallbackMaxFirst) on the first
// path component. No headers found is a valid empty result.
func DetectHeaders(text string, maxFirst int) []domain.Header {
	if maxFirst <= 0 {
		maxFirst = DefaultFallbackMaxFirst
	}

	var headers []domain.Header
	for _, m := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		path, err := domain.ParseNumberPath(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		headers = append(headers, domain.Header{Number: path, Start: m[0], End: m[1]})
	}

	if len(headers) == 0 {
		for _, m := range bareRe.FindAllStringSubmatchIndex(text, -1) {
			path, err := domain.ParseNumberPath(text[m[2]:m[3]])
			if err != nil {
				continue
			}
			if path[0] < 1 || path[0] > maxFirst {
				continue
			}
			// Header ends at the number, not the delimiter.
			headers = append(headers, domain.Header{Number: path, Start: m[2], End: m[3]})
		}
	}

	sort.SliceStable(headers, func(i, j int) bool { return headers[i].Start < headers[j].Start })
	return headers
}

// Segment converts ordered headers into contiguous blocks. Each block's
// content runs from the end of its header to the start of the next one
// (or end of document), trimmed of leading whitespace, leading
// punctuation, and any repeated restatement of its own number
// ("3.3. 3.3 Het hof..." keeps only "Het hof..."). Blocks left empty
// after cleanup are dropped.
func Segment(text string, headers []domain.Header) []domain.Block {
	blocks := make([]domain.Block, 0, len(headers))
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1].Start
		}
		if h.End > end {
			continue
		}
		content := cleanContent(text[h.End:end], h.Number.String())
		if content == "" {
			continue
		}
		blocks = append(blocks, domain.Block{Number: h.Number, Text: content})
	}
	return blocks
}

// Blocks is the convenience composition: detect headers, then segment.
func Blocks(text string, maxFirst int) []domain.Block {
	return Segment(text, DetectHeaders(text, maxFirst))
}

func cleanContent(content, number string) string {
	c := strings.TrimSpace(content)
	c = leadPunctRe.ReplaceAllString(c, "")
	// A marker like "3.3. 3.3 Het hof..." leaves ". 3.3" in front of the
	// content, so each echo may carry a stray dot on either side.
	echoRe := regexp.MustCompile(`^(?:\.?\s*` + regexp.QuoteMeta(number) + `\.?\s*)+`)
	c = echoRe.ReplaceAllString(c, "")
	return strings.TrimSpace(c)
}
