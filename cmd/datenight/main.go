package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/clcruickshank2/datenight/internal/app"
	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
