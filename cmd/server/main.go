package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agencyops/internal/app/server"
	"agencyops/internal/platform/config"
)

func main() {
	cfg := config.Load()
	logger := server.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
