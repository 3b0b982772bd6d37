package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/watchpost-dev/watchpost/db"
	"github.com/watchpost-dev/watchpost/internal/auth"
	"github.com/watchpost-dev/watchpost/internal/config"
	"github.com/watchpost-dev/watchpost/internal/handlers"
	"github.com/watchpost-dev/watchpost/internal/logger"
	"github.com/watchpost-dev/watchpost/internal/probe"
	"github.com/watchpost-dev/watchpost/internal/router"
	"github.com/watchpost-dev/watchpost/internal/scheduler"
	"github.com/watchpost-dev/watchpost/internal/store"
	"github.com/watchpost-dev/watchpost/internal/uptime"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine in production where the environment is set
	// by the process manager.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatal("failed to initialize JWT secret", zap.Error(err))
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	service := uptime.NewService(db.DB, probe.NewHTTPProber())
	service.OnCheckRecorded(handlers.BroadcastCheck)
	handlers.Init(service)

	sched := scheduler.New(service, store.NewMonitorStore(db.DB), log)
	sched.Start()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.NewRouter(),
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
