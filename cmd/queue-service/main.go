package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"go.uber.org/zap"

	"ringq/internal/api"
	"ringq/internal/config"
	"ringq/internal/logger"
	"ringq/internal/metrics"
	"ringq/internal/queue"
	"ringq/internal/queueapi"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("queue-service", logger.Config{
		Level:      cfg.Logger.Level,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := serve(logger.WithCtx(context.Background(), log), cfg); err != nil {
		log.Error("queue service stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.FromCtx(ctx)
	m := metrics.New()
	manager := queue.NewManager(cfg.Queue.DefaultCapacity, queue.WithLogger(log), queue.WithObserver(m))
	defer manager.Close()

	e := queueapi.RegisterRoutes(ctx, queueapi.NewHandler(manager), m)
	srv := api.NewServer(cfg.HTTP.Addr, e, log, time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)

	var g run.Group
	g.Add(srv.Run, srv.Interrupt)
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	log.Info("queue service starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Int("default_capacity", cfg.Queue.DefaultCapacity))

	err := g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		log.Info("signal received, shutting down", zap.Stringer("signal", sig.Signal))
		return nil
	}
	return err
}
