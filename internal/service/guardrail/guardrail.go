// Package guardrail holds the narrow LLM safety checks that sit in front
// of chat-originated mutations: a binary "does this call match what the
// user asked for" gate and a focused intent extractor for updates.
package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/pkg/log"
)

const (
	checkTimeout = 10 * time.Second
	// transcriptTurns bounds how much conversation the guardrail sees.
	transcriptTurns = 6
)

type Service struct {
	llm     core.Completer
	timeout time.Duration
}

func NewService(llm core.Completer) *Service {
	return &Service{llm: llm, timeout: checkTimeout}
}

// Check asks one binary question: does this tool name + argument set
// plausibly match user intent in the recent conversation? Any error here
// is the caller's signal to fail closed.
func (s *Service) Check(ctx context.Context, call core.ToolCall, convo *core.ConversationContext) (core.GuardrailDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args, err := json.Marshal(call.Arguments)
	if err != nil {
		return core.GuardrailDecision{}, fmt.Errorf("marshal arguments: %w", err)
	}

	prompt := fmt.Sprintf(
		`A knowledge-base agent wants to run this tool call:

Tool: %s
Arguments: %s

Recent conversation (newest last):
%s

Does this tool call plausibly match what the user asked for? Judge name,
target and values against the conversation. Output a single JSON object:
{"allowed": true/false, "reason": "..."}`,
		call.Name, string(args), transcript(convo),
	)

	raw, err := s.llm.Complete(ctx, core.CompletionRequest{
		System:      "You are a safety reviewer for knowledge-base mutations. Output only valid JSON.",
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   200,
		JSONMode:    true,
	})
	if err != nil {
		return core.GuardrailDecision{}, fmt.Errorf("guardrail completion: %w", err)
	}

	jsonStr := extractJSONObject(raw)
	if jsonStr == "" {
		return core.GuardrailDecision{}, core.NewInvalidResponse("no JSON object in guardrail response", raw)
	}

	var decision core.GuardrailDecision
	if err := json.Unmarshal([]byte(jsonStr), &decision); err != nil {
		return core.GuardrailDecision{}, core.NewInvalidResponse("unmarshal guardrail decision: "+err.Error(), raw)
	}

	if !decision.Allowed {
		log.FromCtx(ctx).Warn().
			Str("tool", call.Name).
			Str("reason", decision.Reason).
			Msg("guardrail denied tool call")
	}
	return decision, nil
}

// transcript builds a compact window: the last few turns with the latest
// user message guaranteed present.
func transcript(convo *core.ConversationContext) string {
	if convo == nil || len(convo.Recent) == 0 {
		return "(no conversation available)"
	}

	recent := convo.Recent
	if len(recent) > transcriptTurns {
		recent = recent[len(recent)-transcriptTurns:]
	}

	var b strings.Builder
	for _, m := range recent {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
	}
	return b.String()
}

func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(content[start:], "}")
	if end == -1 {
		return ""
	}
	return content[start : start+end+1]
}
