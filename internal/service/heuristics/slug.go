package heuristics

import (
	"regexp"
	"strings"
)

var slugRun = regexp.MustCompile(`[^a-z0-9-]+`)

// NormalizeSlug lower-cases s, collapses non-[a-z0-9-] runs to a single
// '-' and trims leading/trailing dashes. Idempotent.
func NormalizeSlug(s string) string {
	s = strings.ToLower(s)
	s = slugRun.ReplaceAllString(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
