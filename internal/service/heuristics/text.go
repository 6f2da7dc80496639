// Package heuristics holds the pure text-mining functions the executor
// and classifier lean on: tokenizing, overlap scoring, phrase extraction
// and duration/priority/date inference. Inherently fuzzy; kept isolated
// from orchestration so every pattern can be unit tested.
package heuristics

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	quotedRe = regexp.MustCompile(`["'\x60]([^"'\x60]{2,80})["'\x60]`)

	// "update X to/as ...", "rename X to ...", "change X to ..."
	updateTargetRe = regexp.MustCompile(`(?i)\b(?:update|rename|change)\s+(?:the\s+)?(.+?)\s+(?:to|as)\b`)
	// "delete X", "remove X"
	deleteTargetRe = regexp.MustCompile(`(?i)\b(?:delete|remove)\s+(?:the\s+)?(.+?)(?:[.,!?]|$)`)
	// "make X a project", "move X to projects"
	moveTargetRe = regexp.MustCompile(`(?i)\b(?:make|move)\s+(?:the\s+)?(.+?)\s+(?:a|an|to|into)\s+\w+`)
	// "reclassify X as ..."
	reclassifyRe = regexp.MustCompile(`(?i)\breclassify\s+(?:the\s+)?(.+?)\s+as\b`)
)

// Tokenize lower-cases s, splits on non-alphanumeric runs and drops
// tokens of length <= 1.
func Tokenize(s string) []string {
	var out []string
	for _, t := range nonAlnum.Split(strings.ToLower(s), -1) {
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}

// Overlap counts tokens of a that also occur in b (set semantics).
func Overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(a))
	for _, t := range a {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

// SameTokenSet reports whether a and b cover exactly the same tokens.
func SameTokenSet(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	as := make(map[string]struct{}, len(a))
	for _, t := range a {
		as[t] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, t := range b {
		bs[t] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for t := range as {
		if _, ok := bs[t]; !ok {
			return false
		}
	}
	return true
}

// QuotedPhrases returns phrases the user put in quotes, verbatim.
func QuotedPhrases(s string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(s, -1) {
		p := strings.TrimSpace(m[1])
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CommandTargets mines "update/rename/change X to", "delete/remove X",
// "make/move X to <category>" and "reclassify X as" phrasings for the
// entry name the user was talking about.
func CommandTargets(s string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{updateTargetRe, deleteTargetRe, moveTargetRe, reclassifyRe} {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			t := strings.Trim(strings.TrimSpace(m[1]), `"'`)
			if t != "" && len(Tokenize(t)) > 0 {
				out = append(out, t)
			}
		}
	}
	return out
}

// SlugPhrase turns a path slug back into a space-separated query
// ("projects/home-lab-rebuild" -> "home lab rebuild").
func SlugPhrase(path string) string {
	slug := path
	if i := strings.Index(path, "/"); i >= 0 {
		slug = path[i+1:]
	}
	return strings.Join(Tokenize(slug), " ")
}
