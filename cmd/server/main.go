package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ado-go/farmly-sub001/internal/app"
	"github.com/Ado-go/farmly-sub001/internal/config"
	handler "github.com/Ado-go/farmly-sub001/internal/handler/http"
	"github.com/Ado-go/farmly-sub001/pkg/logger"
)

func main() {
	// Load configuration from environment variables and an optional .env file.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger.
	log := logger.NewWithFormat(handler.ServiceName, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	log.Info("starting farmly api",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("payment_provider", cfg.PaymentProvider),
	)

	// Create the application with all dependencies wired.
	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the application. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("farmly api stopped")
}
