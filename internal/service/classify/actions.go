package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/quill/internal/core"
)

const actionTimeout = 15 * time.Second

// ActionExtractor mines concrete next-actions and due dates out of raw
// text. Callers treat any failure as "no actions found".
type ActionExtractor struct {
	llm     core.Completer
	timeout time.Duration
	now     func() time.Time
}

func NewActionExtractor(llm core.Completer) *ActionExtractor {
	return &ActionExtractor{llm: llm, timeout: actionTimeout, now: time.Now}
}

func (e *ActionExtractor) ExtractActions(ctx context.Context, text string) ([]core.ExtractedAction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		`Extract concrete next actions from the text. Output format: JSON list of objects {action, due_date}. due_date is ISO (YYYY-MM-DD) or empty. Current date: %s. Rules: 1. Only actions the user must take. 2. Skip vague intentions. Text: %s`,
		e.now().Format("2006-01-02"), text,
	)

	raw, err := e.llm.Complete(ctx, core.CompletionRequest{
		System:      "You are an action extraction system. Output only valid JSON.",
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   400,
		JSONMode:    true,
	})
	if err != nil {
		return nil, mapCompletionError("action extraction", err)
	}

	jsonStr := extractJSONArray(raw)
	if jsonStr == "" {
		return nil, core.NewInvalidResponse("no JSON array found in response", raw)
	}

	var actions []core.ExtractedAction
	if err := json.Unmarshal([]byte(jsonStr), &actions); err != nil {
		return nil, core.NewInvalidResponse("unmarshal actions: "+err.Error(), raw)
	}

	out := actions[:0]
	for _, a := range actions {
		if strings.TrimSpace(a.Action) != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return ""
	}
	return content[start : start+end+1]
}
