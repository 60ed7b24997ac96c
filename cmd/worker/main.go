package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lfmartins/importflow/internal/config"
	"github.com/lfmartins/importflow/internal/csvval"
	"github.com/lfmartins/importflow/internal/database"
	"github.com/lfmartins/importflow/internal/kafkasource"
	"github.com/lfmartins/importflow/internal/logging"
	"github.com/lfmartins/importflow/internal/repository"
	"github.com/lfmartins/importflow/internal/s3storage"
	"github.com/lfmartins/importflow/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}
	repo := repository.NewImportRepository(pool, logger)

	store, err := s3storage.New(cfg, logger)
	if err != nil {
		logger.Error("init storage", slog.Any("error", err))
		os.Exit(1)
	}

	consumer := kafkasource.New(cfg, logger)
	defer consumer.Close()

	validator := csvval.New(logger)
	w := worker.New(consumer, repo, store, validator, logger,
		worker.WithInterval(cfg.CycleInterval))

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
