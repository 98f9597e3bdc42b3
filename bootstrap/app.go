package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tahlil/api"
	"tahlil/config"
	"tahlil/core"
	"tahlil/metrics"
	"tahlil/model"
	"tahlil/nlp"
	"tahlil/storage"
	"tahlil/wordcloud"
)

// App represents the tahlil application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Pipeline  *nlp.Pipeline
	SQLite    *storage.SQLite
	History   *storage.HistoryStorage
	Retention *storage.RetentionManager
	Cache     *core.ResultCache
	Renderer  *wordcloud.Renderer
	APIServer *api.API

	serviceWg sync.WaitGroup
}

// NewApp creates a new application instance and initializes all components.
// In graceful startup mode failures of optional subsystems (history storage,
// cache, word-cloud renderer) degrade the service instead of aborting; a
// loadable model is required in every mode.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Tahlil starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	graceful := cfg.StartupMode == config.StartupModeGraceful

	// Pre-flight checks
	sugar.Info("Running pre-flight checks...")
	dirs := DataDirectoriesFromConfig(cfg)
	if err := EnsureDataDirectories(dirs, sugar); err != nil {
		return nil, fmt.Errorf("pre-flight check failed: %w", err)
	}

	// Model package. Required in every startup mode.
	manager := model.NewManager(dirs.Models, cfg.Model.HubURL, cfg.Model.DownloadTimeout, sugar)
	loadStart := time.Now()
	data, err := manager.Ensure(ctx, cfg.Model.Name, cfg.Model.Version, cfg.Model.AutoDownload)
	if err != nil {
		return nil, fmt.Errorf("%s", ClassifyModelError(err, cfg.Model.Name, cfg.Model.Version, cfg.Model.HubURL))
	}
	metrics.ModelLoadSeconds.Set(time.Since(loadStart).Seconds())
	sugar.Infow("Model package loaded",
		"model", fmt.Sprintf("%s@%s", cfg.Model.Name, cfg.Model.Version),
		"duration", time.Since(loadStart))

	app.Pipeline = nlp.NewPipeline(data, cfg.Analysis.MaxTextLength, cfg.Analysis.Workers, sugar)

	// History storage (optional under graceful mode).
	if cfg.History.Enabled {
		sqlite, err := storage.NewSQLite(dirs.SQLite, sugar)
		if err != nil {
			msg := ClassifyStorageError(err, dirs.SQLite)
			if !graceful {
				return nil, fmt.Errorf("%s", msg)
			}
			sugar.Warnw("Starting without analysis history", "reason", msg)
		} else {
			app.SQLite = sqlite
			app.History = storage.NewHistoryStorage(sqlite)
			app.Retention = storage.NewRetentionManager(app.History,
				cfg.History.RetentionDays, cfg.History.PruneInterval, sugar)
		}
	} else {
		sugar.Info("Analysis history disabled by configuration")
	}

	// Result cache (optional under graceful mode).
	if cfg.Cache.Enabled {
		var redis *core.RedisCache
		if cfg.Cache.Redis.Enabled {
			redis = core.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password,
				cfg.Cache.Redis.DB, cfg.Cache.Redis.PoolSize, sugar)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := redis.Ping(pingCtx)
			cancel()
			if pingErr != nil {
				if !graceful {
					return nil, fmt.Errorf("redis at %s is unreachable: %w", cfg.Cache.Redis.Addr, pingErr)
				}
				sugar.Warnw("Starting without Redis cache tier",
					"addr", cfg.Cache.Redis.Addr, "error", pingErr)
				_ = redis.Close()
				redis = nil
			}
		}
		cache, err := core.NewResultCache(cfg.Cache.LRUSize, redis, cfg.Cache.TTL, sugar)
		if err != nil {
			if !graceful {
				return nil, fmt.Errorf("failed to initialize result cache: %w", err)
			}
			sugar.Warnw("Starting without result cache", "error", err)
		} else {
			app.Cache = cache
		}
	}

	// Word-cloud renderer (optional under graceful mode).
	renderer, err := wordcloud.NewRenderer(cfg.Wordcloud.Width, cfg.Wordcloud.Height,
		cfg.Wordcloud.MaxWords, cfg.Wordcloud.FontFile, sugar)
	if err != nil {
		if !graceful {
			return nil, fmt.Errorf("failed to initialize word-cloud renderer: %w", err)
		}
		sugar.Warnw("Starting without word-cloud rendering", "error", err)
	} else {
		app.Renderer = renderer
	}

	// Nil interface values must stay nil for the API's degraded checks.
	var history api.HistoryStorer
	if app.History != nil {
		history = app.History
	}
	var wcRenderer api.Renderer
	if app.Renderer != nil {
		wcRenderer = app.Renderer
	}
	app.APIServer = api.NewAPI(app.Pipeline, history, wcRenderer, app.Cache, cfg, sugar)

	return app, nil
}

// Start starts the retention job and the HTTP server.
func (a *App) Start() error {
	if a.Retention != nil {
		a.Retention.Start()
	}

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	a.serviceWg.Add(1)
	go func() {
		defer a.serviceWg.Done()
		var err error
		if a.Config.Server.TLS {
			a.Sugar.Infow("HTTPS server listening", "addr", addr)
			err = a.APIServer.StartTLS(addr, a.Config.Server.CertFile, a.Config.Server.KeyFile)
		} else {
			a.Sugar.Infow("HTTP server listening", "addr", addr)
			err = a.APIServer.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorw("HTTP server failed", "error", err)
		}
	}()

	return nil
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	// Phase 1 - Stop accepting requests
	a.Sugar.Info("Phase 1: Stopping HTTP server...")
	if a.APIServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop HTTP server", "error", err)
		}
	}

	// Phase 2 - Stop background jobs
	a.Sugar.Info("Phase 2: Stopping retention job...")
	if a.Retention != nil {
		a.Retention.Stop()
	}

	// Phase 3 - Close the cache
	a.Sugar.Info("Phase 3: Closing result cache...")
	if a.Cache != nil {
		a.Cache.Close()
	}

	// Phase 4 - Close storage
	a.Sugar.Info("Phase 4: Closing history database...")
	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			a.Sugar.Errorw("Failed to close history database", "error", err)
		}
	}

	// Phase 5 - Wait for service goroutines
	a.Sugar.Info("Phase 5: Waiting for service goroutines to complete...")
	done := make(chan struct{})
	go func() {
		a.serviceWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		a.Sugar.Info("All service goroutines stopped")
	case <-time.After(10 * time.Second):
		a.Sugar.Warn("Service goroutine shutdown timed out")
	}

	_ = a.Logger.Sync()
	a.Sugar.Info("Shutdown complete")
}
