package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/app"
	"github.com/recipebook/backend/internal/logging"
	"github.com/recipebook/backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	srv := server.New(cfg, a.Handler(), log)
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", zap.Error(err))
		return
	}
	log.Info("server stopped")
}
