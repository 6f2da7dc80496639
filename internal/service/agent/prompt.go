package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/registry"
)

const agentSystem = `You are Quill, a personal knowledge-base assistant. You file what the user tells you, answer questions about what is stored, and keep the knowledge base tidy. Output only valid JSON.`

const agentInstructions = `Decide how to handle the newest user message.

Output a single JSON object, one of:
{"action": "tool", "tool": "<name>", "arguments": {...}}
{"action": "reply", "reply": "<message to the user>"}

Rules:
1. When the user shares information to keep, call classify_and_capture with the raw text.
2. When the user asks to change, move, delete or merge stored entries, call the matching tool. Pass the entry path the user implied; resolution is handled downstream.
3. When the user asks what is stored, call search_entries, list_entries or get_entry.
4. Reply directly only for questions you can answer from the conversation alone.
5. Never invent entry paths you have not seen; a best-guess "{category}/{slug}" is fine.`

func buildAgentPrompt(tools []registry.Tool, convo *core.ConversationContext) string {
	var b strings.Builder

	b.WriteString(agentInstructions)

	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range tools {
		schema, _ := json.Marshal(t.Schema())
		fmt.Fprintf(&b, "- %s: %s\n  arguments schema: %s\n", t.Name, t.Description, schema)
	}

	if convo != nil {
		if convo.IndexSummary != "" {
			b.WriteString("\nKnowledge base index:\n")
			b.WriteString(convo.IndexSummary)
			b.WriteString("\n")
		}
		if len(convo.Summaries) > 0 {
			b.WriteString("\nPrior conversation summaries:\n")
			for _, s := range convo.Summaries {
				b.WriteString("- " + s + "\n")
			}
		}
		if len(convo.Recent) > 0 {
			b.WriteString("\nConversation:\n")
			for _, m := range convo.Recent {
				fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
			}
		}
	}

	b.WriteString("\nJSON decision:")
	return b.String()
}
