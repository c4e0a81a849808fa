// Package app wires configuration, storage and the conversation engine into
// a runnable Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/mediabot/core/bootstrap"
	"github.com/m3rciful/mediabot/core/logger"
	tg "github.com/m3rciful/mediabot/core/telegram"
	tgsender "github.com/m3rciful/mediabot/core/telegram/sender"
	"github.com/m3rciful/mediabot/internal/bot"
	"github.com/m3rciful/mediabot/internal/conversation"
	"github.com/m3rciful/mediabot/internal/engine"
	"github.com/m3rciful/mediabot/internal/storage"
	"github.com/m3rciful/mediabot/internal/upload"
)

const connectTimeout = 15 * time.Second

// App holds the infrastructure shared by the bot runtime.
type App struct {
	cfg *Config
	db  *sqlx.DB

	conversations conversation.Store
	blobs         *storage.GCSBlobStore
	closers       []func() error
}

// BootstrapOptions allow tests to replace infrastructure constructors.
type BootstrapOptions struct {
	Bootstrap func(bootstrap.Options) (*bootstrap.Result, error)
}

// Bootstrap initialises logging, the database, the conversation store and blob storage.
func Bootstrap(cfg *Config, opts BootstrapOptions) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	run := opts.Bootstrap
	if run == nil {
		run = bootstrap.Run
	}
	res, err := run(bootstrap.Options{Config: &cfg.Config, Database: cfg.Database})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: res.DB}
	a.closers = append(a.closers, res.DB.Close)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := a.openConversations(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	blobs, err := storage.NewGCSBlobStore(ctx, cfg.blobConfig())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.blobs = blobs
	a.closers = append(a.closers, blobs.Close)

	logger.Info(ctx, "app", "bootstrap",
		slog.String("status", "ok"),
		slog.String("mode", cfg.Conversations.Backend),
		slog.String("bucket", cfg.Storage.Bucket),
		slog.Bool("video", cfg.Media.EnableVideo),
	)
	return a, nil
}

func (a *App) openConversations(ctx context.Context) error {
	if a.cfg.Conversations.Backend != BackendRedis {
		a.conversations = conversation.NewMemoryStore()
		return nil
	}
	store, closer, err := conversation.NewRedisStore(ctx, a.cfg.redisOptions())
	if err != nil {
		return err
	}
	a.conversations = store
	a.closers = append(a.closers, closer)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// TelegramRunOptions builds the bot, the engine and the routes on top of the bootstrapped infrastructure.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	b, err := tg.BuildBot(&a.cfg.Config, tg.BotOptions{})
	if err != nil {
		return tg.RunOptions{}, err
	}
	dispatcher := tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2})

	eng, err := a.buildEngine(b, dispatcher)
	if err != nil {
		dispatcher.Close()
		return tg.RunOptions{}, err
	}

	reg := tg.NewRegistry()
	r := bot.NewRouter(eng, a.cfg.Media.EnableVideo)
	if err := r.Register(reg); err != nil {
		dispatcher.Close()
		return tg.RunOptions{}, fmt.Errorf("app: register routes: %w", err)
	}

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Bot:         b,
		Dispatcher:  dispatcher,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      r.Routes(reg),
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			err := a.Close()
			if err != nil {
				logger.Warn(ctx, "app", "close", slog.String("status", "fail"), slog.String("err", err.Error()))
			}
			return err
		},
	}, nil
}

func (a *App) buildEngine(b *tele.Bot, dispatcher *tgsender.Dispatcher) (*engine.Engine, error) {
	return engine.New(engine.Deps{
		Store:     a.conversations,
		Messenger: bot.NewMessenger(b, dispatcher),
		Uploader:  upload.New(a.blobs, a.cfg.uploadOptions()),
		Records:   storage.NewPostgresRecords(a.db),
		Users:     storage.NewPostgresUsers(a.db),
	}, a.cfg.engineOptions())
}
