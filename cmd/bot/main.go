// Package main contains the entrypoint for the bot runtime.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/herval/cliobot/internal/ai"
	core "github.com/herval/cliobot/internal/bot"
	"github.com/herval/cliobot/internal/commands"
	"github.com/herval/cliobot/internal/config"
	"github.com/herval/cliobot/internal/database"
	"github.com/herval/cliobot/internal/logger"
	"github.com/herval/cliobot/internal/metrics"
	"github.com/herval/cliobot/internal/resilience"
	"github.com/herval/cliobot/internal/scheduler"
	"github.com/herval/cliobot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires up every component and blocks until shutdown. It returns the
// process exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	recorder := metrics.New(log)

	backend, err := newBackend(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize model backend", "provider", cfg.AI.Provider, "error", err)
		return 1
	}

	registry := newRegistry(cfg, backend, store)

	// The transport and the dispatcher reference each other: the adapter
	// enqueues inbound messages, the dispatcher replies through the
	// adapter. The closure breaks the construction cycle.
	var dispatcher *core.Dispatcher
	tg, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.PollTimeout, store, func(m *core.Message) {
		dispatcher.Enqueue(m)
	}, log)
	if err != nil {
		log.Error("Failed to create Telegram adapter", "error", err)
		return 1
	}

	me, err := tg.Me(ctx)
	if err != nil {
		log.Error("Failed to fetch bot identity", "error", err)
		return 1
	}
	log.Info("Connected to Telegram", "bot_id", me.ID, "bot_username", me.Username)

	messaging := core.NewResilientMessaging(tg, resilience.RetryConfig{
		MaxAttempts: cfg.Outbound.RetryAttempts,
		Delay:       cfg.Outbound.RetryDelay,
	}, log)

	dispatcher = core.NewDispatcher(
		log,
		core.DispatcherConfig{
			Workers:       cfg.Dispatch.Workers,
			QueueSize:     cfg.Dispatch.QueueSize,
			Fallbacks:     cfg.Dispatch.Fallbacks,
			FailureNotice: cfg.Messages.GeneralError,
		},
		registry,
		store,
		messaging,
		recorder,
		nil,
	)

	sched, err := scheduler.New(log, cfg.Scheduler, scheduler.DefaultTasks(log, store))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	if err := sched.Start(); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		return 1
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("Scheduler shutdown failed", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		tg.Start(gctx)
		dispatcher.Close()
		return nil
	})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: recorder.Handler()}
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			log.Info("Metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	log.Info("Bot started")
	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}

func newBackend(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (ai.Backend, error) {
	switch cfg.Provider {
	case "gemini":
		return ai.NewGemini(ctx, ai.GeminiConfig{
			APIKey:      cfg.Token,
			Model:       cfg.Model,
			Instruction: cfg.Instruction,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, log)
	default:
		return ai.NewOpenAI(ai.OpenAIConfig{
			Token:              cfg.Token,
			BaseURL:            cfg.BaseURL,
			Model:              cfg.Model,
			ImageModel:         cfg.ImageModel,
			TranscriptionModel: cfg.AudioModel,
			Instruction:        cfg.Instruction,
			Temperature:        cfg.Temperature,
			Timeout:            cfg.Timeout,
		}, log), nil
	}
}

func newRegistry(cfg *config.Config, backend ai.Backend, store database.Store) *core.Registry {
	help, bindHelp := commands.NewHelp()
	retry, bindRetry := commands.NewRetry()
	shuffle, bindShuffle := commands.NewShuffle()

	registry := core.NewRegistry(
		help,
		retry,
		shuffle,
		commands.NewClear(cfg.Messages.ContextCleared),
		commands.NewPrint(cfg.Messages.EmptyContext),
		commands.NewSet(),
		commands.NewForget(),
		commands.NewAsk(backend, store, cfg.Database.AssetDir, cfg.Messages.ProvidePrompt),
		commands.NewImagine(backend),
		commands.NewTranscribe(backend, store, cfg.Database.AssetDir),
		commands.NewDescribe(backend, store, cfg.Database.AssetDir),
	)

	bindHelp(registry)
	bindRetry(registry)
	bindShuffle(registry)

	return registry
}
