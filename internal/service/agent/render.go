package agent

import (
	"fmt"
	"strings"

	"github.com/sandevgo/quill/internal/core"
)

// RenderResult turns an executor envelope into the markdown message a
// transport shows. Rendering is deterministic; no second model call.
func RenderResult(tool string, res core.ToolResult) string {
	if !res.Success {
		return "⚠️ " + res.Error
	}

	switch tool {
	case "classify_and_capture":
		return renderCapture(res.Data)
	case "update_entry":
		return renderMutation("Updated", res.Data)
	case "move_entry":
		return renderMutation("Moved", res.Data)
	case "delete_entry":
		return renderMutation("Deleted", res.Data)
	case "merge_entries":
		return renderMutation("Merged into", res.Data)
	case "get_entry":
		return renderEntry(res.Data)
	case "search_entries", "list_entries":
		return renderEntryList(res.Data)
	case "generate_digest":
		if digest, ok := res.Data["digest"].(string); ok {
			return digest
		}
	case "find_duplicates":
		return renderDuplicates(res.Data)
	}
	return "Done."
}

func renderCapture(data map[string]any) string {
	if queued, _ := data["queued"].(bool); queued {
		id, _ := data["capture_id"].(int64)
		return fmt.Sprintf("I couldn't classify that right now, so I saved it for later (capture #%d). It will be filed automatically.", id)
	}

	entry, ok := dataEntry(data)
	if !ok {
		return "Done."
	}

	if needed, _ := data["clarification_needed"].(bool); needed {
		var b strings.Builder
		fmt.Fprintf(&b, "I put %q in the inbox for now (`%s`).", entry.Name, entry.Path)
		if entry.AgentNote != "" {
			b.WriteString("\n" + entry.AgentNote)
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filed %q under `%s`.", entry.Name, entry.Path)
	if entry.DueDate != "" {
		fmt.Fprintf(&b, " Due %s.", entry.DueDate)
	}
	return b.String()
}

func renderMutation(verb string, data map[string]any) string {
	var b strings.Builder

	path, _ := data["path"].(string)
	if path == "" {
		if entry, ok := dataEntry(data); ok {
			path = entry.Path
		}
	}
	fmt.Fprintf(&b, "%s `%s`.", verb, path)

	if receipt, ok := data["receipt"].(core.MutationReceipt); ok && receipt.Verification.Verified {
		fmt.Fprintf(&b, " Verified: %s.", strings.Join(receipt.Verification.PassedChecks(), ", "))
	}
	for _, w := range dataStrings(data, "warnings") {
		b.WriteString("\n⚠️ " + w)
	}
	return b.String()
}

func renderEntry(data map[string]any) string {
	entry, ok := dataEntry(data)
	if !ok {
		return "Done."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (`%s`)", entry.Name, entry.Path)
	if entry.Status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", entry.Status)
	}
	if entry.DueDate != "" {
		fmt.Fprintf(&b, "\nDue: %s", entry.DueDate)
	}
	if entry.Body != "" {
		b.WriteString("\n\n" + entry.Body)
	}
	return b.String()
}

// renderEntryList handles both payload shapes the read operations
// produce: list_entries carries []core.Entry, search_entries carries
// ranked []core.SearchHit.
func renderEntryList(data map[string]any) string {
	var b strings.Builder
	switch v := data["entries"].(type) {
	case []core.Entry:
		for _, e := range v {
			fmt.Fprintf(&b, "• %s (`%s`)", e.Name, e.Path)
			if e.Status != "" {
				fmt.Fprintf(&b, " - %s", e.Status)
			}
			b.WriteString("\n")
		}
	case []core.SearchHit:
		for _, h := range v {
			fmt.Fprintf(&b, "• %s (`%s`)\n", h.Name, h.Path)
		}
	}
	if b.Len() == 0 {
		return "Nothing found."
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDuplicates(data map[string]any) string {
	count, _ := data["count"].(int)
	if count == 0 {
		return "No likely duplicates."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d likely duplicate group(s):\n", count)
	groups, _ := data["duplicates"].([]map[string]any)
	for _, g := range groups {
		name, _ := g["name"].(string)
		paths, _ := g["paths"].([]string)
		fmt.Fprintf(&b, "• %s: %s\n", name, strings.Join(paths, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func dataEntry(data map[string]any) (core.Entry, bool) {
	switch v := data["entry"].(type) {
	case core.Entry:
		return v, true
	case *core.Entry:
		if v != nil {
			return *v, true
		}
	}
	return core.Entry{}, false
}

func dataStrings(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
