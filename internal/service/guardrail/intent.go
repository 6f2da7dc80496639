package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/quill/internal/core"
)

const intentTimeout = 10 * time.Second

// IntentAnalyzer infers what an update request actually meant: intended
// title, note, status and related people, more reliably than regex
// heuristics. The executor falls back to textual heuristics when this
// call fails.
type IntentAnalyzer struct {
	llm     core.Completer
	timeout time.Duration
}

func NewIntentAnalyzer(llm core.Completer) *IntentAnalyzer {
	return &IntentAnalyzer{llm: llm, timeout: intentTimeout}
}

func (a *IntentAnalyzer) AnalyzeUpdate(ctx context.Context, path string, args map[string]any, userMessage string) (*core.UpdateIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	prompt := fmt.Sprintf(
		`An agent proposed updating knowledge-base entry %q with arguments:
%s

The user's message was:
%s

Infer what the user actually asked for. Output a single JSON object:
{"title": "...", "note": "...", "status": "...", "status_requested": true/false, "related_people": ["..."]}

Rules:
1. status_requested is true only if the user explicitly asked to change
   the entry's status; then status holds the requested value
   (pending/active/waiting/blocked/done).
2. Leave fields empty when the message does not mention them.`,
		path, string(argsJSON), userMessage,
	)

	raw, err := a.llm.Complete(ctx, core.CompletionRequest{
		System:      "You extract user intent for knowledge-base updates. Output only valid JSON.",
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   300,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}

	jsonStr := extractJSONObject(raw)
	if jsonStr == "" {
		return nil, core.NewInvalidResponse("no JSON object in intent response", raw)
	}

	var intent core.UpdateIntent
	if err := json.Unmarshal([]byte(jsonStr), &intent); err != nil {
		return nil, core.NewInvalidResponse("unmarshal intent: "+err.Error(), raw)
	}
	return &intent, nil
}
