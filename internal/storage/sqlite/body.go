package sqlite

import (
	"strings"

	"github.com/sandevgo/quill/internal/core"
)

// applyBody applies a body update to the current markdown body.
func applyBody(current string, upd core.BodyUpdate) string {
	content := strings.TrimSpace(upd.Content)
	switch upd.Mode {
	case core.BodyReplace:
		return content
	case core.BodySection:
		return replaceSection(current, upd.Section, content)
	default:
		if strings.TrimSpace(current) == "" {
			return content
		}
		return strings.TrimSpace(current) + "\n\n" + content
	}
}

// replaceSection swaps the content under the "## <section>" heading,
// leaving the heading itself in place. A missing section is appended at
// the end of the body.
func replaceSection(body, section, content string) string {
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		if isHeading(line) && strings.EqualFold(headingTitle(line), section) {
			start = i
			break
		}
	}
	if start == -1 {
		out := strings.TrimSpace(body)
		block := "## " + section + "\n\n" + content
		if out == "" {
			return block
		}
		return out + "\n\n" + block
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if isHeading(lines[i]) {
			end = i
			break
		}
	}

	var out []string
	out = append(out, lines[:start+1]...)
	out = append(out, "", content, "")
	out = append(out, lines[end:]...)
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "## ")
}

func headingTitle(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "## "))
}
