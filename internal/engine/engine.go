// Package engine assembles the render engine from configuration: stores,
// providers, bridge and dispatcher. Both the desktop app and renderctl
// build on it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"airender/internal/bridge"
	"airender/internal/capture"
	"airender/internal/config"
	"airender/internal/database"
	"airender/internal/dispatcher"
	"airender/internal/logging"
	"airender/internal/metrics"
	"airender/internal/models"
	"airender/internal/providers"
	"airender/internal/services"
)

type Options struct {
	Config *config.Config
	Host   capture.Host
	Logger *zap.Logger
	// Ring overrides the OS keyring.
	Ring keyring.Keyring
	// NoDatabase disables the generation-run log.
	NoDatabase bool
}

type Engine struct {
	Config     *config.Config
	Services   *services.Services
	Providers  *providers.Registry
	Metrics    *metrics.Collector
	Bridge     *bridge.Bridge
	Dispatcher *dispatcher.Dispatcher
	Log        *zap.Logger

	closeOnce sync.Once
	closers   []func() error
}

func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("engine: config is required")
	}
	log := logging.OrNop(opts.Logger)
	e := &Engine{Config: cfg, Log: log, Metrics: metrics.NewCollector(log)}

	deps := services.Deps{
		ConfigRoot:    cfg.App.ConfigRoot,
		Ring:          opts.Ring,
		Scene:         opts.Host,
		HistoryLimit:  cfg.History.Limit,
		ThumbnailSize: cfg.History.ThumbnailSize,
		Logger:        log,
	}
	if !opts.NoDatabase {
		path := cfg.Database.Path
		if path == "" && !database.IsDevelopment() {
			path = filepath.Join(cfg.App.ConfigRoot, "airender.db")
		}
		db, err := database.Init(database.Config{Path: path, LogLevel: logger.Warn, Logger: log})
		if err != nil {
			log.Warn("generation-run log disabled", zap.Error(err))
		} else {
			deps.DB = db
			if sqlDB, err := db.DB(); err == nil {
				e.closers = append(e.closers, sqlDB.Close)
			}
		}
	}
	e.Services = services.NewServices(deps)

	e.Providers = providers.NewRegistry(providers.RegistryOptions{
		Cloud: providers.CloudConfig{
			GeminiBase: cfg.Gemini.APIBase,
			VertexBase: cfg.Vertex.APIBase,
			ProModel:   cfg.Models.Pro,
			FlashModel: cfg.Models.Flash,
			RateLimit:  cfg.Provider.RateLimit,
			RateBurst:  cfg.Provider.RateBurst,
		},
		Settings: e.Services.Settings,
		Vault:    e.Services.Keyring,
		Transport: providers.NewTransport(func() string {
			return e.Services.Settings.Load().ProxyURL
		}, cfg.Provider.RequestTimeout, log),
		OnAttempt: func(a models.EndpointAttempt) { e.Metrics.RecordAttempt(a.Endpoint, a.Outcome) },
		Logger:    log,
	})

	e.Bridge = bridge.New(cfg.Bridge.OutboxSize, e.Metrics, log)
	e.Dispatcher = dispatcher.New(dispatcher.Options{
		Host:      opts.Host,
		Providers: e.Providers,
		Settings:  e.Services.Settings,
		History:   e.Services.History,
		Favorites: e.Services.Favorites,
		RunLog:    e.Services.RunLog,
		Watcher:   e.Services.Watcher,
		Metrics:   e.Metrics,
		Out:       e.Bridge,
		MaxCount:  cfg.Generation.MaxCount,
		Logger:    log,
	})
	return e, nil
}

// Start begins watching history and, when configured, serving metrics.
func (e *Engine) Start(ctx context.Context) {
	e.Dispatcher.WatchHistory(ctx)
	if addr := e.Config.Metrics.Listen; addr != "" {
		go func() {
			if err := e.Metrics.Serve(ctx, addr); err != nil {
				e.Log.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}
}

// Handle routes one inbound command.
func (e *Engine) Handle(ctx context.Context, env bridge.Envelope) {
	e.Dispatcher.Handle(ctx, env)
}

// Close cancels generation, stops the watcher and closes the database.
func (e *Engine) Close() error {
	var errs []error
	e.closeOnce.Do(func() {
		e.Dispatcher.Close()
		e.Services.Watcher.Stop()
		for _, c := range e.closers {
			if err := c(); err != nil {
				errs = append(errs, fmt.Errorf("engine close: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}
