// Package normalize canonicalizes raw decision text before segmentation.
package normalize

import (
	"regexp"
	"strings"
)

var (
	hardSpaceRe     = regexp.MustCompile(`[\t\x{00A0}]+`)
	doubleQuoteRe   = regexp.MustCompile("[“”]")
	singleQuoteRe   = regexp.MustCompile("[‘’]")
	trailingBlankRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalizes line endings, whitespace, and quote glyphs:
// CRLF/CR become LF, tabs and non-breaking spaces collapse to single
// spaces, curly quotes become straight quotes, runs of 3+ newlines
// collapse to one blank line, and surrounding whitespace is trimmed.
// Pure function, no failure modes.
func Normalize(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = hardSpaceRe.ReplaceAllString(t, " ")
	t = doubleQuoteRe.ReplaceAllString(t, `"`)
	t = singleQuoteRe.ReplaceAllString(t, "'")
	t = trailingBlankRe.ReplaceAllString(t, "\n")
	t = blankRunRe.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

// Clamp soft-truncates s to at most max runes, appending an ellipsis
// marker when content was cut.
func Clamp(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
