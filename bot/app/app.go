// Package app assembles the bot from configuration: infrastructure, the
// conversation router and the Telegram wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/m3rciful/gptbot/bot/assets"
	"github.com/m3rciful/gptbot/bot/assistant"
	botconfig "github.com/m3rciful/gptbot/bot/config"
	"github.com/m3rciful/gptbot/bot/dialog"
	"github.com/m3rciful/gptbot/bot/ops"
	"github.com/m3rciful/gptbot/bot/quiz"
	"github.com/m3rciful/gptbot/bot/session"
	"github.com/m3rciful/gptbot/bot/store"
	"github.com/m3rciful/gptbot/bot/transport"
	"github.com/m3rciful/gptbot/core/bootstrap"
	"github.com/m3rciful/gptbot/core/cmd"
	"github.com/m3rciful/gptbot/core/logger"
	tg "github.com/m3rciful/gptbot/core/telegram"
	"github.com/m3rciful/gptbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/gptbot/core/telegram/helpers"
	"github.com/m3rciful/gptbot/core/telegram/router"
	"github.com/m3rciful/gptbot/resources"

	tele "gopkg.in/telebot.v4"
)

const (
	rateLimitedText = "Too many requests, slow down a little."
	adminOnlyText   = "This command is for the bot owner."
)

// App is the assembled bot.
type App struct {
	cfg      *botconfig.Config
	infra    *bootstrap.Result
	sessions *session.Store
	quiz     *quiz.Engine
	registry *tg.Registry
	handlers *transport.Handlers
	started  time.Time

	ops *ops.Server
}

// Deps overrides the pieces Bootstrap would otherwise build from config.
type Deps struct {
	// Completer replaces the OpenAI client.
	Completer assistant.Completer
	// Resources replaces the embedded resources.
	Resources fs.FS
	// Bootstrap replaces the infrastructure pipeline options.
	Bootstrap func(*bootstrap.Options)
}

// Bootstrap satisfies cmd.Options.Bootstrap.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*botconfig.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg, Deps{})
}

// New builds the App. Resources on disk under cfg.Resources.Dir shadow the
// embedded ones file by file.
func New(ctx context.Context, cfg *botconfig.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	layers := []fs.FS{}
	if cfg.Resources.Dir != "" {
		layers = append(layers, os.DirFS(cfg.Resources.Dir))
	}
	if deps.Resources != nil {
		layers = append(layers, deps.Resources)
	} else {
		layers = append(layers, resources.FS)
	}
	catalog := assets.New(assets.Layered(layers...))

	defaults, err := catalog.QuizItems()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	personas, err := catalog.Personas()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	bopts := bootstrap.Options{
		Config:  &cfg.Config,
		Seeders: []bootstrap.Seeder{store.QuizSeeder(defaults)},
	}
	if deps.Bootstrap != nil {
		deps.Bootstrap(&bopts)
	}
	infra, err := bootstrap.Run(ctx, bopts)
	if err != nil {
		return nil, err
	}

	items, err := quizItems(ctx, infra, defaults)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	engine, err := quiz.NewEngine(items)
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	completer := deps.Completer
	if completer == nil {
		completer = assistant.NewOpenAIClient(assistant.OpenAIOptions{
			Token:       cfg.OpenAI.Token,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: *cfg.OpenAI.Temperature,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		})
	}
	sessions := session.NewStore(completer)

	dlg, err := dialog.New(dialog.Options{
		Sessions: sessions,
		Texts:    catalog,
		Personas: personas,
		Quiz:     engine,
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		infra:    infra,
		sessions: sessions,
		quiz:     engine,
		registry: tg.NewRegistry(),
		started:  time.Now(),
	}
	a.handlers = transport.NewHandlers(dlg, transport.NewPhotoCache(catalog))
	if err := a.handlers.Register(a.registry); err != nil {
		_ = infra.Close()
		return nil, err
	}
	a.registry.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Bot statistics",
		Order:       100,
		AdminOnly:   true,
		Hidden:      true,
	})

	logger.Info(ctx, "app", "assembled",
		slog.Int("personas", len(personas)),
		slog.Int("quiz_questions", engine.Len()),
		slog.Bool("db", infra.DB != nil),
		slog.Bool("resources_dir", cfg.Resources.Dir != ""),
	)
	return a, nil
}

// quizItems prefers the database bank and falls back to the bundled one.
func quizItems(ctx context.Context, infra *bootstrap.Result, defaults []quiz.Item) ([]quiz.Item, error) {
	if infra.DB == nil {
		return defaults, nil
	}
	items, err := store.NewQuizRepository(infra.DB).Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if len(items) == 0 {
		logger.Warn(ctx, logger.CompQuiz, "bank.empty", slog.String("source", "db"))
		return defaults, nil
	}
	return items, nil
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry {
	return a.registry
}

// TelegramRunOptions satisfies cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := &a.cfg.Config

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error { return tghelpers.SendText(c, adminOnlyText) },
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{
		UnknownCommand: a.handlers.UnknownCommand,
	})...)

	return tg.RunOptions{
		Config:            core,
		Registry:          a.registry,
		DispatcherOptions: tg.DispatcherOptionsFrom(core),
		Middlewares: tg.DefaultMiddlewares(core, func(c tele.Context) error {
			return tghelpers.SendText(c, rateLimitedText)
		}),
		Routes:  routes,
		OnStart: a.onStart,
		OnStop:  a.onStop,
	}, nil
}

func (a *App) onStart(_ context.Context, _ tg.Runtime) error {
	listen := strings.TrimSpace(a.cfg.Ops.Listen)
	if listen == "" {
		return nil
	}
	opts := ops.Options{Stats: func() any { return a.Stats() }}
	if a.infra.DB != nil {
		opts.DB = a.infra.DB
	}
	srv, err := ops.Start(listen, ops.NewHandler(opts))
	if err != nil {
		return fmt.Errorf("app: ops server: %w", err)
	}
	a.ops = srv
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.ops == nil {
		return nil
	}
	err := a.ops.Shutdown(ctx)
	a.ops = nil
	return err
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.infra.Close()
}
