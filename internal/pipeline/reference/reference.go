// Package reference extracts ECLI case-citation identifiers from
// decision text.
package reference

import (
	"regexp"
	"strings"
)

// ECLI structural form: country code, court code, four-digit year,
// alphanumeric case id, optional "-digits" suffix.
var ecliRe = regexp.MustCompile(`(?i)\bECLI:[A-Z]{2}:[A-Z]{2,}:\d{4}:[A-Z0-9]+(?:-\d+)?\b`)

// Extract scans text for ECLI identifiers, case-insensitively, and
// returns them canonicalized to upper case, deduplicated, preserving
// first-seen order.
func Extract(text string) []string {
	matches := ecliRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.ToUpper(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
