package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toursApi/internal/app"
	"toursApi/internal/config"
	"toursApi/internal/shared/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "env load warning: %v\n", err)
	}
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := logging.Setup(logging.Config{
		Directory: cfg.Logging.Directory,
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: !cfg.App.Development(),
		Service:   "tours-api",
		Env:       cfg.App.Env,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	api.Echo.Logger.SetOutput(log.Writer())

	errCh := make(chan error, 1)
	go func() { errCh <- api.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.Any("error", err))
	}
}
