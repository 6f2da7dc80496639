// Package executor orchestrates one agent-issued tool call end-to-end:
// registry validation, guardrail checks for chat-originated mutations,
// dispatch to the category-specific handler, heuristic target resolution
// for stale paths, and post-mutation verification with receipts. No
// error ever escapes Execute; every outcome is a ToolResult.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/registry"
	"github.com/sandevgo/quill/pkg/log"
)

const defaultConfidenceThreshold = 0.6

// Classifier turns free text into a structured classification result.
type Classifier interface {
	Classify(ctx context.Context, input core.ClassificationInput) (*core.ClassificationResult, error)
}

// ActionMiner extracts concrete next-actions from raw text. Failures are
// swallowed by the executor and treated as "no actions found".
type ActionMiner interface {
	ExtractActions(ctx context.Context, text string) ([]core.ExtractedAction, error)
}

// Guard answers the binary "does this call match user intent" question.
// Any error from it makes the executor fail closed.
type Guard interface {
	Check(ctx context.Context, call core.ToolCall, convo *core.ConversationContext) (core.GuardrailDecision, error)
}

// IntentService infers the intended title/note/status of an update
// request from the user's own words.
type IntentService interface {
	AnalyzeUpdate(ctx context.Context, path string, args map[string]any, userMessage string) (*core.UpdateIntent, error)
}

// DigestBuilder renders activity digests and the compact index summary
// used as classification context.
type DigestBuilder interface {
	Build(ctx context.Context, period string) (string, error)
	IndexSummary(ctx context.Context) (string, error)
}

// Deps carries every collaborator explicitly; tests substitute
// deterministic fakes. No process-wide singletons.
type Deps struct {
	Registry   *registry.Registry
	Store      core.EntryStore
	Search     core.Searcher
	Linker     core.Linker
	Queue      core.CaptureQueue
	Classifier Classifier
	Actions    ActionMiner
	Guard      Guard
	Intent     IntentService
	Digest     DigestBuilder
}

type Executor struct {
	deps      Deps
	threshold float64
	now       func() time.Time
}

type Option func(*Executor)

// WithThreshold overrides the confidence routing cutoff.
func WithThreshold(t float64) Option {
	return func(e *Executor) { e.threshold = t }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func New(deps Deps, opts ...Option) *Executor {
	e := &Executor{
		deps:      deps,
		threshold: defaultConfidenceThreshold,
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Options tune a single Execute call.
type Options struct {
	Channel core.Channel
	Context *core.ConversationContext
	// AllowQueueing permits parking the capture for later replay when
	// classification fails transiently.
	AllowQueueing bool
}

// Execute runs one tool call. Each call is independent and stateless
// apart from the shared collaborators.
func (e *Executor) Execute(ctx context.Context, call core.ToolCall, opts Options) (result core.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			log.FromCtx(ctx).Error().Str("tool", call.Name).Msgf("handler panic: %v", r)
			result = core.ToolResult{Success: false, Error: fmt.Sprintf("internal error executing %s: %v", call.Name, r)}
		}
	}()

	if opts.Channel == "" {
		opts.Channel = core.ChannelAPI
	}

	if v := e.deps.Registry.ValidateArguments(call.Name, call.Arguments); !v.Valid {
		return core.ToolResult{Success: false, Error: "invalid arguments: " + strings.Join(v.Errors, "; ")}
	}

	if e.shouldGuard(call.Name, opts) {
		decision, err := e.deps.Guard.Check(ctx, call, opts.Context)
		if err != nil {
			// An unverifiable guardrail is treated as unsafe.
			return core.ToolResult{Success: false, Error: "Tool call blocked by guardrail: check failed: " + err.Error()}
		}
		if !decision.Allowed {
			return core.ToolResult{Success: false, Error: "Tool call blocked by guardrail: " + decision.Reason}
		}
	}

	data, err := e.dispatch(ctx, call, opts)
	if err != nil {
		log.FromCtx(ctx).Debug().Str("tool", call.Name).Err(err).Msg("tool call failed")
		return core.ToolResult{Success: false, Error: err.Error()}
	}
	return core.ToolResult{Success: true, Data: data}
}

// shouldGuard: mutating actions issued over chat with conversational
// context available. Read-only actions never invoke the guardrail.
func (e *Executor) shouldGuard(name string, opts Options) bool {
	return e.deps.Registry.IsMutating(name) &&
		opts.Channel == core.ChannelChat &&
		opts.Context != nil &&
		e.deps.Guard != nil
}

func (e *Executor) dispatch(ctx context.Context, call core.ToolCall, opts Options) (map[string]any, error) {
	args := call.Arguments
	switch call.Name {
	case "classify_and_capture":
		return e.classifyAndCapture(ctx, args, opts)
	case "list_entries":
		return e.listEntries(ctx, args)
	case "get_entry":
		return e.getEntry(ctx, args)
	case "generate_digest":
		return e.generateDigest(ctx, args)
	case "update_entry":
		return e.updateEntry(ctx, args, opts)
	case "move_entry":
		return e.moveEntry(ctx, args, opts)
	case "search_entries":
		return e.searchEntries(ctx, args)
	case "delete_entry":
		return e.deleteEntry(ctx, args, opts)
	case "find_duplicates":
		return e.findDuplicates(ctx, args)
	case "merge_entries":
		return e.mergeEntries(ctx, args, opts)
	}
	return nil, core.NewValidation("unknown tool: " + call.Name)
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
