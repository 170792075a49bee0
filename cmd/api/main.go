package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/api"
	"github.com/saturnino-fabrica-de-software/ponto/internal/app"
	"github.com/saturnino-fabrica-de-software/ponto/internal/attendance"
	"github.com/saturnino-fabrica-de-software/ponto/internal/config"
	"github.com/saturnino-fabrica-de-software/ponto/internal/webhook"
	"github.com/saturnino-fabrica-de-software/ponto/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Ponto API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreDriver),
		slog.String("camera", cfg.CameraDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background workers live until the deferred cancel after shutdown
	workersCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	hub := ws.NewHub(logger)
	go hub.Run(workersCtx)

	notifiers := []attendance.Notifier{hub}

	var webhookWorker *webhook.Worker
	if cfg.WebhookURL != "" {
		whConfig := webhook.DefaultConfig(cfg.WebhookURL, cfg.WebhookSecret)
		webhookWorker = webhook.NewWorker(webhook.NewService(whConfig), whConfig, logger)
		go webhookWorker.Run(workersCtx)
		notifiers = append(notifiers, webhookWorker)
		logger.Info("webhook delivery enabled", slog.String("url", cfg.WebhookURL))
	}

	tracker, err := app.New(ctx, cfg, logger, app.Options{Notifiers: notifiers})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	go hub.Forward(workersCtx, tracker.Recognition.Events())
	tracker.Scheduler.Start()

	if cfg.APIKeyHash == "" {
		logger.Warn("API_KEY_HASH is empty, the control API is unauthenticated")
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Faces:       tracker.Faces,
		Attendance:  tracker.Attendance,
		Recognition: tracker.Recognition,
		Photos:      tracker.Photos,
		Store:       tracker.Store.Pinger,
		Hub:         hub,
		APIKeyHash:  cfg.APIKeyHash,
		PhotosDir:   cfg.PhotosDir,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	var serverErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		serverErr = fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	// Recognition stops and the log flushes before the notifiers go away
	if err := tracker.Close(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	if webhookWorker != nil {
		if err := webhookWorker.Close(shutdownCtx); err != nil {
			logger.Warn("pending webhooks dropped", slog.Any("error", err))
		}
	}

	logger.Info("server stopped")
	return serverErr
}
