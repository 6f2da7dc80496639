package core

import "time"

const (
	QuillName          = "Quill"
	QuillUserAgent     = "Quill-Agent/0.1"
	QuillRepositoryURL = "https://github.com/sandevgo/quill"
	QuillVersion       = "0.1.0"
)

// Channel identifies where a tool call originated. Guardrail checks apply
// only to the chat channel, where agent-constructed arguments are least
// reliable relative to what the user actually said.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
	ChannelAPI   Channel = "api"
)

// Category is the routing prefix of an entry path ({category}/{slug}).
type Category string

const (
	CategoryPeople   Category = "people"
	CategoryProjects Category = "projects"
	CategoryIdeas    Category = "ideas"
	CategoryTask     Category = "task"
	CategoryInbox    Category = "inbox"
)

// ClassifiableCategories are the categories the classifier may emit.
// Inbox is reserved for low-confidence routing.
var ClassifiableCategories = []Category{
	CategoryPeople, CategoryProjects, CategoryIdeas, CategoryTask,
}

func IsClassifiable(c Category) bool {
	for _, k := range ClassifiableCategories {
		if c == k {
			return true
		}
	}
	return false
}

// ToolCall is an agent-issued action. Arguments are opaque until the
// registry has validated them against the action's schema.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the universal envelope for every execute() outcome.
// No error type ever crosses the executor boundary; failures are strings.
type ToolResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ChatMessage is one verbatim conversational turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationContext bundles everything the classifier and guardrail know
// about the ongoing conversation. Immutable per call.
type ConversationContext struct {
	SystemPrompt string
	IndexSummary string
	// Summaries of prior conversations, chronological.
	Summaries []string
	// Recent verbatim messages, chronological, bounded by the caller.
	Recent []ChatMessage
}

// LatestUserMessage returns the newest user-role turn, or "".
func (c *ConversationContext) LatestUserMessage() string {
	if c == nil {
		return ""
	}
	for i := len(c.Recent) - 1; i >= 0; i-- {
		if c.Recent[i].Role == RoleUser {
			return c.Recent[i].Content
		}
	}
	return ""
}

// UserMessages returns every user-role turn, chronological.
func (c *ConversationContext) UserMessages() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, m := range c.Recent {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MutationOperation names the kind of mutation a receipt covers.
type MutationOperation string

const (
	OpUpdate MutationOperation = "update"
	OpMove   MutationOperation = "move"
	OpDelete MutationOperation = "delete"
)

// VerificationCheck is one independently re-derived post-mutation check.
type VerificationCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Note   string `json:"note,omitempty"`
}

// Verification is the outcome of re-deriving whether a mutation did what
// the storage call claimed.
type Verification struct {
	Verified bool                `json:"verified"`
	Checks   []VerificationCheck `json:"checks"`
}

// FailedChecks lists the names of checks that did not pass.
func (v Verification) FailedChecks() []string {
	var out []string
	for _, c := range v.Checks {
		if !c.Passed {
			out = append(out, c.Name)
		}
	}
	return out
}

// PassedChecks lists the names of checks that passed, in order.
func (v Verification) PassedChecks() []string {
	var out []string
	for _, c := range v.Checks {
		if c.Passed {
			out = append(out, c.Name)
		}
	}
	return out
}

// MutationReceipt makes "did the write actually happen as claimed"
// auditable by the caller. Created once per mutating call, never mutated.
type MutationReceipt struct {
	Operation     MutationOperation `json:"operation"`
	RequestedPath string            `json:"requested_path"`
	ResolvedPath  string            `json:"resolved_path"`
	Verification  Verification      `json:"verification"`
	Timestamp     time.Time         `json:"timestamp"`
}
