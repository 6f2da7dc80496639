package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/quill/internal/core"
)

const condenseSystem = "You summarize conversation transcripts. Output plain text only."

const condenseInstructions = `Summarize the conversation excerpt below in one or two sentences.
Keep concrete facts: names, dates, decisions, things the user asked to be saved or changed.
Drop greetings and filler.`

// Condenser turns an evicted stretch of conversation into one short
// summary line via the configured model.
type Condenser struct {
	llm core.Completer
}

func NewCondenser(llm core.Completer) *Condenser {
	return &Condenser{llm: llm}
}

func (c *Condenser) Condense(ctx context.Context, msgs []core.ChatMessage) (string, error) {
	var b strings.Builder
	b.WriteString(condenseInstructions)
	b.WriteString("\n\nExcerpt:\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
	}

	out, err := c.llm.Complete(ctx, core.CompletionRequest{
		System:      condenseSystem,
		Prompt:      b.String(),
		Temperature: 0.2,
		MaxTokens:   200,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
