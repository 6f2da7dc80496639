package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/quill/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"QUILL_RUNTIME_PATH" envDefault:".quill"`

	// Transport flags
	EnableTelegram bool `env:"QUILL_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"QUILL_ENABLE_CLI" envDefault:"true"`

	// Classification routing
	ConfidenceThreshold float64 `env:"QUILL_CONFIDENCE_THRESHOLD" envDefault:"0.6"`

	// Conversational context
	ContextWindowSize int `env:"QUILL_CONTEXT_WINDOW_SIZE" envDefault:"30"`

	// Offline capture queue
	EnableCaptureQueue  bool `env:"QUILL_ENABLE_CAPTURE_QUEUE" envDefault:"true"`
	QueueReplaySeconds  int  `env:"QUILL_QUEUE_REPLAY_SECONDS" envDefault:"60"`
	QueueReplayAttempts int  `env:"QUILL_QUEUE_REPLAY_ATTEMPTS" envDefault:"5"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "quill.db")
}
