package main

import (
	"github.com/sandevgo/quill/internal/transport/mcp"
	"github.com/sandevgo/quill/pkg/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the action catalog to an MCP client over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		rt := newRuntime(ctx)
		defer func() {
			if err := rt.Close(); err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("failed to close storage")
			}
		}()

		return mcp.NewServer(rt.registry, rt.executor).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
