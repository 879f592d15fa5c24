package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hexforge/lootcase/internal/actions"
	"github.com/hexforge/lootcase/internal/animation"
	"github.com/hexforge/lootcase/internal/api"
	"github.com/hexforge/lootcase/internal/auth"
	"github.com/hexforge/lootcase/internal/cases"
	"github.com/hexforge/lootcase/internal/config"
	"github.com/hexforge/lootcase/internal/control"
	"github.com/hexforge/lootcase/internal/cooldown"
	"github.com/hexforge/lootcase/internal/database"
	"github.com/hexforge/lootcase/internal/events"
	"github.com/hexforge/lootcase/internal/gui"
	"github.com/hexforge/lootcase/internal/history"
	"github.com/hexforge/lootcase/internal/hologram"
	"github.com/hexforge/lootcase/internal/keys"
	"github.com/hexforge/lootcase/internal/resolve"
	"github.com/hexforge/lootcase/internal/rng"
	"github.com/hexforge/lootcase/pkg/skins"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting lootcase service", zap.String("port", cfg.Server.Port))

	// Key storage backend
	var store keys.Store
	var fileStore *keys.FileStore
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.Connect(cfg.Storage.DSN)
		if err != nil {
			logger.Fatal("connect database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			logger.Fatal("migrate database", zap.Error(err))
		}
		store = keys.NewPGStore(db)
	default:
		fileStore, err = keys.NewFileStore(cfg.Storage.KeysFile, logger)
		if err != nil {
			logger.Fatal("open keys file", zap.Error(err))
		}
		store = fileStore
	}
	ledger := keys.NewLedger(store, logger)

	// Core services
	bus := events.NewBus(logger)
	registry := cases.NewRegistry()
	loader := cases.NewLoader(cfg.Cases.Dir, registry, bus, logger)
	if count, err := loader.LoadAll(); err != nil {
		logger.Fatal("load case definitions", zap.Error(err))
	} else {
		logger.Info("case definitions loaded", zap.Int("count", count))
	}

	ctrl := control.New(bus, logger)
	cool := cooldown.New(cfg.Cases.Cooldown)
	resolver := resolve.New(rng.New())
	hist := history.NewLog(logger)
	executor := actions.NewExecutor(actions.NewLogSink(logger), logger)

	hub := api.NewHub(logger)
	sched := animation.NewScheduler(cfg.Animate.TickInterval, logger)
	engine := animation.NewEngine(animation.Config{
		Registry: registry,
		Ledger:   ledger,
		History:  hist,
		Resolver: resolver,
		Executor: executor,
		Bus:      bus,
		Control:  ctrl,
		Cooldown: cool,
		Sched:    sched,
		Sink:     hub,
		Log:      logger,
	})
	sched.Start()

	clicks := gui.NewRegistry(logger)
	clicks.RegisterOpenHandler(engine)

	// Hologram refresh on its own cron schedule
	display := hologram.NewMemoryDisplay()
	holo := hologram.NewManager(registry, hist, display, logger)
	if err := holo.Start(cfg.Hologram.Schedule); err != nil {
		logger.Fatal("start hologram refresh", zap.Error(err))
	}

	// Config hot reload
	watcher := cases.NewWatcher(loader, cfg.Cases.WatchInterval, logger)
	watcher.Start()

	// Periodic maintenance
	maintenance := cron.New()
	maintenance.AddFunc("@every 1m", cool.Prune)
	if fileStore != nil && cfg.Storage.FlushEverySec > 0 {
		flushEvery := time.Duration(cfg.Storage.FlushEverySec) * time.Second
		maintenance.AddFunc("@every "+flushEvery.String(), func() {
			if err := fileStore.Flush(); err != nil {
				logger.Error("flush key store", zap.Error(err))
			}
		})
	}
	maintenance.Start()

	skinsClient := skins.NewClient(&skins.ClientConfig{
		BaseURL: cfg.Skins.BaseURL,
		APIKey:  cfg.Skins.APIKey,
		Timeout: cfg.Skins.Timeout,
	})

	authSvc := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.AdminPassHash)
	handler := api.New(authSvc, registry, loader, ledger, hist, engine, ctrl, hub, skinsClient, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctrl.DisableAll("service shutting down", "system")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	watcher.Stop()
	holo.Stop()
	maintenance.Stop()
	sched.Stop()

	if err := ledger.Close(); err != nil {
		logger.Error("close key store", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
