package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/quill/internal/core"
)

const classificationSystem = "You are a knowledge-base classification system. Output only valid JSON."

// recentWindowTokens bounds the verbatim conversation window included in
// the prompt. Oldest turns are dropped first.
const recentWindowTokens = 1200

const classificationInstructions = `Classify the user text into exactly one category and extract structured fields.

Categories:
- people: a person the user knows or met (fields: role, company, lastContact, followUps[])
- projects: multi-step ongoing work (fields: status one of [active, waiting, blocked, someday], nextAction, dueDate, people[])
- ideas: a thought worth keeping (fields: tags[], relatedProjects[])
- task: a single concrete action item (fields: status, dueDate, priority 1-5, durationMinutes)

Output a single JSON object:
{"category": "...", "confidence": 0.0-1.0, "name": "...", "slug": "...",
 "fields": {...}, "relatedEntries": ["..."], "reasoning": "...", "bodyContent": "..."}

Rules:
1. confidence reflects how sure you are of the category, not of the fields.
2. slug is a lowercase hyphenated identifier derived from name.
3. relatedEntries lists names of existing entries this text refers to.
4. bodyContent is well-formed note prose for the entry body: restate the
   captured information, keep concrete details, drop filler. Resolve
   relative dates against the current date given below.`

func buildClassificationPrompt(input core.ClassificationInput, now time.Time) string {
	var b strings.Builder

	b.WriteString(classificationInstructions)
	fmt.Fprintf(&b, "\n\nCurrent date: %s\n", now.Format("Monday, 2006-01-02"))

	if ctx := input.Context; ctx != nil {
		if ctx.IndexSummary != "" {
			b.WriteString("\nKnowledge base index:\n")
			b.WriteString(ctx.IndexSummary)
			b.WriteString("\n")
		}
		if len(ctx.Summaries) > 0 {
			b.WriteString("\nPrior conversation summaries:\n")
			for _, s := range ctx.Summaries {
				b.WriteString("- " + s + "\n")
			}
		}
		if recent := TrimToTokenBudget(ctx.Recent, recentWindowTokens); len(recent) > 0 {
			b.WriteString("\nRecent conversation:\n")
			for _, m := range recent {
				fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
			}
		}
	}

	b.WriteString("\nUser text:\n")
	b.WriteString(input.Text)
	b.WriteString("\n")

	if h := input.Hints; h != nil {
		b.WriteString("\nHints:\n")
		if h.Category != "" {
			fmt.Fprintf(&b, "- likely category: %s\n", h.Category)
		}
		if h.Name != "" {
			fmt.Fprintf(&b, "- likely name: %s\n", h.Name)
		}
	}

	return b.String()
}

// TrimToTokenBudget drops the oldest messages until the window fits the
// token budget. Falls back to a rough 4-chars-per-token estimate when the
// encoder is unavailable (e.g. offline test runs).
func TrimToTokenBudget(msgs []core.ChatMessage, budget int) []core.ChatMessage {
	if len(msgs) == 0 {
		return nil
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	count := func(s string) int {
		if err != nil || enc == nil {
			return len(s) / 4
		}
		return len(enc.Encode(s, nil, nil))
	}

	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		n := count(msgs[i].Content) + 4
		if total+n > budget {
			break
		}
		total += n
		start = i
	}

	if start == len(msgs) {
		// Always keep the newest turn even if it alone busts the budget.
		start = len(msgs) - 1
	}
	return msgs[start:]
}
