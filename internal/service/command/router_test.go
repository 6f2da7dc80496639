package command

import (
	"context"
	"strings"
	"testing"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/executor"
)

type fakeRunner struct {
	result core.ToolResult
	calls  []core.ToolCall
	opts   []executor.Options
}

func (f *fakeRunner) Execute(_ context.Context, call core.ToolCall, opts executor.Options) core.ToolResult {
	f.calls = append(f.calls, call)
	f.opts = append(f.opts, opts)
	return f.result
}

type fakeResetter struct {
	reset []string
}

func (f *fakeResetter) Reset(sessionID string) {
	f.reset = append(f.reset, sessionID)
}

func newTestRouter(runner *fakeRunner) (*Router, *fakeResetter) {
	mem := &fakeResetter{}
	return New(NewCommands(runner, mem)), mem
}

func TestRouterIgnoresPlainText(t *testing.T) {
	router, _ := newTestRouter(&fakeRunner{})
	if _, handled := router.Execute(context.Background(), "s1", "just a message"); handled {
		t.Fatal("plain text must not be consumed")
	}
}

func TestRouterUnknownCommand(t *testing.T) {
	router, _ := newTestRouter(&fakeRunner{})
	out, handled := router.Execute(context.Background(), "s1", "/frobnicate")
	if !handled || !strings.Contains(out, "Unknown command: /frobnicate") {
		t.Fatalf("out = %q, handled = %v", out, handled)
	}
}

func TestDigestCommand(t *testing.T) {
	runner := &fakeRunner{result: core.ToolResult{
		Success: true,
		Data:    map[string]any{"period": "weekly", "digest": "# Weekly digest - 2026-08-26"},
	}}
	router, _ := newTestRouter(runner)

	out, handled := router.Execute(context.Background(), "s1", "/digest weekly")
	if !handled || !strings.Contains(out, "# Weekly digest") {
		t.Fatalf("out = %q", out)
	}
	if runner.calls[0].Name != "generate_digest" || runner.calls[0].Arguments["period"] != "weekly" {
		t.Fatalf("call = %+v", runner.calls[0])
	}
	// Deterministic user-typed arguments skip the guardrail channel.
	if runner.opts[0].Channel != core.ChannelAPI {
		t.Fatalf("channel = %q", runner.opts[0].Channel)
	}
}

func TestDigestCommandRejectsBadPeriod(t *testing.T) {
	runner := &fakeRunner{}
	router, _ := newTestRouter(runner)

	out, _ := router.Execute(context.Background(), "s1", "/digest hourly")
	if !strings.Contains(out, "Usage: /digest") {
		t.Fatalf("out = %q", out)
	}
	if len(runner.calls) != 0 {
		t.Fatal("invalid period must not reach the executor")
	}
}

func TestSearchCommandJoinsQuery(t *testing.T) {
	runner := &fakeRunner{result: core.ToolResult{
		Success: true,
		Data:    map[string]any{"entries": []core.SearchHit{{Name: "Boiler", Path: "task/boiler", Category: core.CategoryTask}}, "total": 1},
	}}
	router, _ := newTestRouter(runner)

	out, _ := router.Execute(context.Background(), "s1", "/search boiler warranty")
	if runner.calls[0].Arguments["query"] != "boiler warranty" {
		t.Fatalf("query = %v", runner.calls[0].Arguments["query"])
	}
	if !strings.Contains(out, "task/boiler") {
		t.Fatalf("out = %q", out)
	}
}

func TestListCommand(t *testing.T) {
	runner := &fakeRunner{result: core.ToolResult{
		Success: true,
		Data:    map[string]any{"entries": []core.Entry{}, "count": 0},
	}}
	router, _ := newTestRouter(runner)

	router.Execute(context.Background(), "s1", "/list task pending")
	if got := runner.calls[0].Arguments; got["category"] != "task" || got["status"] != "pending" {
		t.Fatalf("arguments = %+v", got)
	}
}

func TestCommandErrorSurfaces(t *testing.T) {
	runner := &fakeRunner{result: core.ToolResult{Success: false, Error: "invalid arguments: category: must be one of [people projects ideas task inbox]"}}
	router, _ := newTestRouter(runner)

	out, _ := router.Execute(context.Background(), "s1", "/list stuff")
	if !strings.Contains(out, "Error:") || !strings.Contains(out, "invalid arguments") {
		t.Fatalf("out = %q", out)
	}
}

func TestResetCommand(t *testing.T) {
	router, mem := newTestRouter(&fakeRunner{})
	out, _ := router.Execute(context.Background(), "chat-42", "/reset")
	if !strings.Contains(out, "cleared") {
		t.Fatalf("out = %q", out)
	}
	if len(mem.reset) != 1 || mem.reset[0] != "chat-42" {
		t.Fatalf("reset = %v", mem.reset)
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	router, _ := newTestRouter(&fakeRunner{})
	out, _ := router.Execute(context.Background(), "s1", "/help")
	for _, name := range []string{"/digest", "/search", "/list", "/dupes", "/reset", "/help"} {
		if !strings.Contains(out, name) {
			t.Errorf("help missing %s", name)
		}
	}
}
