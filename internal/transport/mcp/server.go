// Package mcp exposes the action catalog to MCP clients over stdio.
// Calls arrive on the api channel: the arguments come from a tool-using
// client, not from a free-form conversation, so no guardrail applies.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/executor"
	"github.com/sandevgo/quill/internal/service/registry"
)

// Runner executes validated tool calls.
type Runner interface {
	Execute(ctx context.Context, call core.ToolCall, opts executor.Options) core.ToolResult
}

type Server struct {
	srv *server.MCPServer
}

// NewServer registers every catalog action as an MCP tool.
func NewServer(reg *registry.Registry, runner Runner) *Server {
	s := server.NewMCPServer(
		core.QuillName,
		core.QuillVersion,
		server.WithToolCapabilities(true),
	)

	for _, t := range reg.All() {
		schema, _ := json.Marshal(t.Schema())
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, schema), handlerFor(runner, t.Name))
	}

	return &Server{srv: s}
}

// Serve blocks on the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.srv)
}

func handlerFor(runner Runner, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := runner.Execute(ctx, core.ToolCall{
			Name:      name,
			Arguments: req.GetArguments(),
		}, executor.Options{Channel: core.ChannelAPI})

		if !res.Success {
			return mcp.NewToolResultError(res.Error), nil
		}
		return mcp.NewToolResultJSON(res.Data)
	}
}
