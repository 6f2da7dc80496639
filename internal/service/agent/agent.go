// Package agent turns a free-form chat message into at most one tool
// call. The model sees the action catalog and the conversation window,
// decides between answering directly and proposing a call, and the
// executor does the rest; the agent never touches storage itself.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/executor"
	"github.com/sandevgo/quill/internal/service/registry"
	"github.com/sandevgo/quill/pkg/log"
)

// Runner executes validated tool calls.
type Runner interface {
	Execute(ctx context.Context, call core.ToolCall, opts executor.Options) core.ToolResult
}

// Memory is the per-session conversation window.
type Memory interface {
	Append(ctx context.Context, sessionID string, msg core.ChatMessage)
	Snapshot(sessionID string) ([]core.ChatMessage, []string)
}

// Indexer supplies the one-paragraph knowledge-base shape included in
// every prompt.
type Indexer interface {
	IndexSummary(ctx context.Context) (string, error)
}

type Agent struct {
	llm      core.Completer
	registry *registry.Registry
	runner   Runner
	memory   Memory
	index    Indexer
}

func New(llm core.Completer, reg *registry.Registry, runner Runner, mem Memory, index Indexer) *Agent {
	return &Agent{
		llm:      llm,
		registry: reg,
		runner:   runner,
		memory:   mem,
		index:    index,
	}
}

// decision mirrors the model's documented output schema.
type decision struct {
	Action    string         `json:"action"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Reply     string         `json:"reply"`
}

// Respond handles one user turn and returns the message to show. The
// returned text is markdown; transports render it for their medium.
func (a *Agent) Respond(ctx context.Context, sessionID, input string) (string, error) {
	logger := log.FromCtx(ctx)

	a.memory.Append(ctx, sessionID, core.ChatMessage{Role: core.RoleUser, Content: input})
	convo := a.conversationContext(ctx, sessionID)

	raw, err := a.llm.Complete(ctx, core.CompletionRequest{
		System:      agentSystem,
		Prompt:      buildAgentPrompt(a.registry.All(), convo),
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return "", core.NewAPIError("agent decision", err)
	}

	dec, err := parseDecision(raw)
	if err != nil {
		// An unparseable decision falls back to capturing the raw
		// input, so nothing the user typed is ever dropped.
		logger.Warn().Err(err).Msg("undecodable agent decision; capturing input verbatim")
		dec = &decision{
			Action:    "tool",
			Tool:      "classify_and_capture",
			Arguments: map[string]any{"text": input},
		}
	}

	var reply string
	switch dec.Action {
	case "reply":
		reply = dec.Reply
	case "tool":
		logger.Info().Str("tool", dec.Tool).Msg("agent proposed tool call")
		res := a.runner.Execute(ctx, core.ToolCall{Name: dec.Tool, Arguments: dec.Arguments}, executor.Options{
			Channel:       core.ChannelChat,
			Context:       convo,
			AllowQueueing: true,
		})
		reply = RenderResult(dec.Tool, res)
	default:
		return "", core.NewInvalidResponse("unknown agent action: "+dec.Action, raw)
	}

	if reply == "" {
		reply = "Done."
	}
	a.memory.Append(ctx, sessionID, core.ChatMessage{Role: core.RoleAssistant, Content: reply})
	return reply, nil
}

func (a *Agent) conversationContext(ctx context.Context, sessionID string) *core.ConversationContext {
	recent, summaries := a.memory.Snapshot(sessionID)

	var index string
	if a.index != nil {
		var err error
		index, err = a.index.IndexSummary(ctx)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("index summary unavailable")
		}
	}

	return &core.ConversationContext{
		SystemPrompt: agentSystem,
		IndexSummary: index,
		Summaries:    summaries,
		Recent:       recent,
	}
}

func parseDecision(raw string) (*decision, error) {
	jsonStr := extractJSONObject(raw)
	if jsonStr == "" {
		return nil, core.NewInvalidResponse("no JSON object found in response", raw)
	}
	var dec decision
	if err := json.Unmarshal([]byte(jsonStr), &dec); err != nil {
		return nil, core.NewInvalidResponse("response is not valid JSON: "+err.Error(), raw)
	}
	if dec.Action == "tool" && dec.Tool == "" {
		return nil, core.NewInvalidResponse("tool action without a tool name", raw)
	}
	return &dec, nil
}

// extractJSONObject scans for the outermost {...} so code fences around
// the JSON do not break parsing.
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
