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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hongminglow/volunteer-hours/internal/config"
	"github.com/hongminglow/volunteer-hours/internal/logging"
	"github.com/hongminglow/volunteer-hours/internal/server"
	"github.com/hongminglow/volunteer-hours/internal/storage/memory"
	postgres "github.com/hongminglow/volunteer-hours/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("init storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer closeStores()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(cfg, stores, logger, registry)

	go func() {
		logger.Info("volunteer hours service listening", "addr", cfg.HTTPAddress(), "storage", cfg.StorageDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func openStores(ctx context.Context, cfg config.Config) (server.Stores, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		m := memory.New()
		return server.Stores{Users: m, Projects: m, TimeLogs: m}, func() {}, nil
	}
	pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return server.Stores{}, nil, err
	}
	return server.Stores{Users: pg, Projects: pg, TimeLogs: pg}, pg.Close, nil
}
