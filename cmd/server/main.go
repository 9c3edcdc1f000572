package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nicholasgasior/markitdown-api/internal/config"
	"github.com/nicholasgasior/markitdown-api/internal/handler"
	"github.com/nicholasgasior/markitdown-api/internal/markitdown"
	"github.com/nicholasgasior/markitdown-api/internal/service"
)

func main() {
	// Load environment variables from a .env file if present
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Wire the conversion pipeline
	engine := markitdown.New(markitdown.WithPlugins(cfg.EnablePlugins))
	backend := service.NewEngineBackend(engine)
	orchestrator := service.NewOrchestrator(backend, cfg.Workers, cfg.QueueSize, cfg.ConversionTimeout, logger)

	convert := handler.NewConvertHandler(orchestrator, cfg.MaxFileSize, logger)
	router := handler.NewRouter(convert, handler.NewHealthHandler(), cfg.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			"addr", srv.Addr,
			"workers", cfg.Workers,
			"queue_size", cfg.QueueSize,
			"max_file_size", cfg.MaxFileSizeHuman(),
			"conversion_timeout", cfg.ConversionTimeout.String(),
			"plugins", cfg.EnablePlugins,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	// Let conversions already on a worker finish
	orchestrator.Close()

	logger.Info("server exited")
}
