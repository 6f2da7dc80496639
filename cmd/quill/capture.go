package main

import (
	"fmt"
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/agent"
	"github.com/sandevgo/quill/internal/service/executor"
	"github.com/sandevgo/quill/pkg/log"
	"github.com/spf13/cobra"
)

var captureCategory string

var captureCmd = &cobra.Command{
	Use:   "capture [text...]",
	Short: "Classify and file one piece of text, then exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		rt := newRuntime(ctx)
		defer func() {
			if err := rt.Close(); err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("failed to close storage")
			}
		}()

		callArgs := map[string]any{"text": strings.Join(args, " ")}
		if captureCategory != "" {
			callArgs["hints"] = map[string]any{"category": captureCategory}
		}

		res := rt.executor.Execute(ctx, core.ToolCall{
			Name:      "classify_and_capture",
			Arguments: callArgs,
		}, executor.Options{
			Channel:       core.ChannelAPI,
			AllowQueueing: true,
		})
		if !res.Success {
			return fmt.Errorf("%s", res.Error)
		}

		fmt.Println(agent.RenderResult("classify_and_capture", res))
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureCategory, "category", "c", "", "category hint (people, projects, ideas, task)")
	rootCmd.AddCommand(captureCmd)
}
