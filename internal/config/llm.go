package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/quill/pkg/log"
)

type LLMConfig struct {
	Provider string `env:"QUILL_LLM_PROVIDER" envDefault:"openrouter"`
	Model    string `env:"QUILL_LLM_MODEL" envDefault:"google/gemma-3-27b-it:free"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey  string `env:"OLLAMA_API_KEY"`

	CustomBaseURL string `env:"QUILL_CUSTOM_LLM_URL"`
	CustomAPIKey  string `env:"QUILL_CUSTOM_LLM_KEY"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}
