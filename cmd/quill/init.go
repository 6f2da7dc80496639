package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandevgo/quill/internal/config"
	"github.com/sandevgo/quill/pkg/env"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the runtime directory and a starter .env",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}

		envFile := filepath.Join(runtimePath, ".env")
		if _, err := os.Stat(envFile); err == nil {
			fmt.Printf("%s already exists, leaving it untouched\n", envFile)
			return nil
		}

		// Current (mostly default) settings become the starter file.
		appCfg := config.NewAppConfig(ctx)
		llmCfg := config.NewLLMConfig(ctx)

		appEnv, err := env.MarshalEnv(appCfg)
		if err != nil {
			return fmt.Errorf("failed to render app settings: %w", err)
		}
		llmEnv, err := env.MarshalEnv(llmCfg)
		if err != nil {
			return fmt.Errorf("failed to render llm settings: %w", err)
		}

		content := "# Quill settings\n" + appEnv + "\n# LLM provider\n" + llmEnv
		if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", envFile, err)
		}

		fmt.Printf("wrote %s\n", envFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
