package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"videothingy/vault/config"
	"videothingy/vault/handlers"
	"videothingy/vault/internal/captions"
	"videothingy/vault/internal/ffmpeg"
	"videothingy/vault/internal/library"
	"videothingy/vault/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

// @title Vault API
// @version 1.0
// @description Folders, uploads, streaming URLs and captions for the personal video vault.
// @BasePath /api
func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.InitLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	logger := config.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := config.OpenMetadataStore(ctx, cfg.Metadata, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize metadata store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warnf("Error closing metadata store: %v", err)
		}
	}()

	objects, err := config.OpenObjectStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize object storage: %v", err)
	}

	if err := os.MkdirAll(cfg.Server.UploadsDir, 0o755); err != nil {
		logger.Fatalf("Failed to create uploads dir %s: %v", cfg.Server.UploadsDir, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := library.New(
		store,
		objects,
		ffmpeg.NewProber(cfg.Tools.FFprobeBin),
		captions.NewWhisper(cfg.Tools.WhisperBin, cfg.Tools.WhisperModel, logger),
		metrics.New(reg),
		logger,
		library.Config{
			StreamURLTTL:   cfg.Library.StreamURLTTL,
			CaptionURLTTL:  cfg.Library.CaptionURLTTL,
			MaxUploadFiles: cfg.Library.MaxUploadFiles,
			UploadsDir:     cfg.Server.UploadsDir,
		},
	)

	app := newApp(ctx, cfg, handlers.NewApplicationHandler(svc, logger), reg, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting Vault API on port %s...", cfg.Server.Port)
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("Server stopped: %v", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Errorf("Error during shutdown: %v", err)
		}
	}
}
