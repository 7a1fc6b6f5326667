package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/config"
	"github.com/abdcafe/backend/internal/notify"
	"github.com/abdcafe/backend/internal/repository"
	"github.com/abdcafe/backend/internal/server"
	"github.com/abdcafe/backend/internal/service"
)

func main() {
	cfgPath := "configs/config.yml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	// Configuration errors, including a missing signing secret, are
	// fatal before anything starts serving.
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Server.Mode == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Pick the credential store backend: Postgres when a database URL is
	// configured, the in-memory reference store otherwise.
	var store repository.UserStore
	if cfg.Database.URL != "" {
		db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repository.MigrateDB(db, logger)
		store = repository.NewPostgresStore(db, logger)
	} else {
		logger.Info("No database configured, using the in-memory user store")
		store = repository.NewMemoryStore()
	}

	var notifier service.Notifier
	tg, err := notify.NewTelegramNotifier(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram notifier, continuing without it", zap.Error(err))
	} else if tg != nil {
		notifier = tg
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.NewServer(store, cfg, notifier, logger)
	srv.StartSweepers(ctx)
	srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
