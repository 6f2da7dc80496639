package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/agent"
	"github.com/sandevgo/quill/internal/service/executor"
)

// Runner executes validated tool calls.
type Runner interface {
	Execute(ctx context.Context, call core.ToolCall, opts executor.Options) core.ToolResult
}

// Resetter clears a session's conversation window.
type Resetter interface {
	Reset(sessionID string)
}

func NewCommands(runner Runner, memory Resetter) []Command {
	cmds := []Command{
		&DigestCommand{runner: runner},
		&SearchCommand{runner: runner},
		&ListCommand{runner: runner},
		&DupesCommand{runner: runner},
		&ResetCommand{memory: memory},
	}
	return append(cmds, &HelpCommand{commands: cmds})
}

func run(ctx context.Context, runner Runner, name string, args map[string]any) (string, error) {
	res := runner.Execute(ctx, core.ToolCall{Name: name, Arguments: args}, executor.Options{
		Channel: core.ChannelAPI,
	})
	if !res.Success {
		return "", fmt.Errorf("%s", res.Error)
	}
	return agent.RenderResult(name, res), nil
}

type DigestCommand struct {
	runner Runner
}

func (c *DigestCommand) Name() string        { return "digest" }
func (c *DigestCommand) Description() string { return "Show the daily or weekly digest" }

func (c *DigestCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	period := "daily"
	if len(args) > 0 {
		period = strings.ToLower(args[0])
	}
	if period != "daily" && period != "weekly" {
		return "Usage: /digest [daily|weekly]", nil
	}
	return run(ctx, c.runner, "generate_digest", map[string]any{"period": period})
}

type SearchCommand struct {
	runner Runner
}

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Search entries by keyword" }

func (c *SearchCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /search <query>", nil
	}
	return run(ctx, c.runner, "search_entries", map[string]any{
		"query": strings.Join(args, " "),
	})
}

type ListCommand struct {
	runner Runner
}

func (c *ListCommand) Name() string        { return "list" }
func (c *ListCommand) Description() string { return "List entries: /list <category> [status]" }

func (c *ListCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /list <category> [status]", nil
	}
	callArgs := map[string]any{"category": strings.ToLower(args[0])}
	if len(args) > 1 {
		callArgs["status"] = strings.ToLower(args[1])
	}
	return run(ctx, c.runner, "list_entries", callArgs)
}

type DupesCommand struct {
	runner Runner
}

func (c *DupesCommand) Name() string        { return "dupes" }
func (c *DupesCommand) Description() string { return "Find likely duplicate entries" }

func (c *DupesCommand) Execute(ctx context.Context, _ string, _ []string) (string, error) {
	return run(ctx, c.runner, "find_duplicates", map[string]any{})
}

type ResetCommand struct {
	memory Resetter
}

func (c *ResetCommand) Name() string        { return "reset" }
func (c *ResetCommand) Description() string { return "Forget the current conversation window" }

func (c *ResetCommand) Execute(_ context.Context, sessionID string, _ []string) (string, error) {
	c.memory.Reset(sessionID)
	return "Conversation window cleared.", nil
}

type HelpCommand struct {
	commands []Command
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show available commands" }

func (c *HelpCommand) Execute(context.Context, string, []string) (string, error) {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range c.commands {
		fmt.Fprintf(&b, "/%s - %s\n", cmd.Name(), cmd.Description())
	}
	fmt.Fprintf(&b, "/%s - %s", c.Name(), c.Description())
	return strings.TrimRight(b.String(), "\n"), nil
}
