package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sandevgo/quill/internal/config"
	"github.com/sandevgo/quill/internal/providers/llm"
	"github.com/sandevgo/quill/internal/service/agent"
	"github.com/sandevgo/quill/internal/service/classify"
	"github.com/sandevgo/quill/internal/service/command"
	"github.com/sandevgo/quill/internal/service/digest"
	"github.com/sandevgo/quill/internal/service/executor"
	"github.com/sandevgo/quill/internal/service/guardrail"
	"github.com/sandevgo/quill/internal/service/linker"
	"github.com/sandevgo/quill/internal/service/memory"
	"github.com/sandevgo/quill/internal/service/queue"
	"github.com/sandevgo/quill/internal/service/registry"
	"github.com/sandevgo/quill/internal/storage/sqlite"
	"github.com/sandevgo/quill/internal/transport/cli"
	"github.com/sandevgo/quill/internal/transport/telegram"
	"github.com/sandevgo/quill/pkg/log"
	"github.com/sandevgo/quill/pkg/srv"
)

// runtime bundles the wired application graph shared by every
// subcommand.
type runtime struct {
	cfg      *config.AppConfig
	db       *sql.DB
	registry *registry.Registry
	captures *sqlite.CaptureRepo
	executor *executor.Executor
	agent    *agent.Agent
	commands *command.Router
	window   *memory.Window
}

func (r *runtime) Close() error {
	return r.db.Close()
}

func newRuntime(ctx context.Context) *runtime {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	entries := sqlite.NewEntryRepo(db)
	search := sqlite.NewSearchRepo(db)
	captures := sqlite.NewCaptureRepo(db, appCfg.EnableCaptureQueue)

	completer, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	reg := registry.New()
	digestSvc := digest.New(entries)

	exec := executor.New(executor.Deps{
		Registry:   reg,
		Store:      entries,
		Search:     search,
		Linker:     linker.New(entries, search),
		Queue:      captures,
		Classifier: classify.NewAgent(completer),
		Actions:    classify.NewActionExtractor(completer),
		Guard:      guardrail.NewService(completer),
		Intent:     guardrail.NewIntentAnalyzer(completer),
		Digest:     digestSvc,
	}, executor.WithThreshold(appCfg.ConfidenceThreshold))

	window := memory.NewWindow(appCfg.ContextWindowSize, memory.NewCondenser(completer))
	ag := agent.New(completer, reg, exec, window, digestSvc)
	commands := command.New(command.NewCommands(exec, window))

	return &runtime{
		cfg:      appCfg,
		db:       db,
		registry: reg,
		captures: captures,
		executor: exec,
		agent:    ag,
		commands: commands,
		window:   window,
	}
}

// NewServices wires the long-running service set for `quill start`.
func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)

	rt := newRuntime(ctx)
	services := []srv.Service{srv.NewCleanup(rt.db.Close)}

	if rt.cfg.EnableCaptureQueue {
		services = append(services, queue.New(rt.captures, rt.executor,
			queue.WithInterval(time.Duration(rt.cfg.QueueReplaySeconds)*time.Second),
			queue.WithMaxAttempts(rt.cfg.QueueReplayAttempts),
		))
	}

	if rt.cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, rt.agent, rt.commands)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		services = append(services, bot)
	}

	if rt.cfg.EnableCLI {
		rl, err := cli.NewReadLine(rt.agent, rt.commands, rt.cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize interactive chat")
		}
		services = append(services, rl)
	}

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
