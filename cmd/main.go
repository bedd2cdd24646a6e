package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"safety-card-bot/config"
	"safety-card-bot/internal/api/telegram"
	"safety-card-bot/internal/api/web"
	app "safety-card-bot/internal/application"
	"safety-card-bot/internal/container"
	"safety-card-bot/internal/domain/port"
	"safety-card-bot/internal/infrastructure/archive"
	"safety-card-bot/internal/infrastructure/catalog"
	"safety-card-bot/internal/infrastructure/metrics"
	"safety-card-bot/internal/infrastructure/report"
	"safety-card-bot/internal/infrastructure/storage"
	"safety-card-bot/internal/infrastructure/storage/sqlite"
	"safety-card-bot/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("service stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// База наблюдений
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewMigrator(db).Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Каталог категорий и детектор
	loaded, err := catalog.Load(ctx, cfg.CatalogPath)
	if err != nil {
		return err
	}

	detector, err := vision.NewYOLODetector(vision.Options{
		ModelPath:  cfg.ModelPath,
		Classes:    vision.ParseClasses(cfg.ModelClasses),
		Confidence: cfg.Confidence,
	})
	if err != nil {
		return fmt.Errorf("load detector: %w", err)
	}
	defer detector.Close()

	// метки каталога обязаны быть среди классов модели, иначе строки навсегда Unsafe
	if err := loaded.Catalog.Validate(detector.Classes()); err != nil {
		return fmt.Errorf("catalog %s: %w", loaded.Version, err)
	}
	logger.Info("catalog loaded", "version", loaded.Version, "sha256", loaded.SHA256, "labels", loaded.Catalog.Labels())

	// Архив отчётов в Cloud Storage (необязателен)
	var archiver port.ReportArchiver
	if cfg.ReportBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("storage client: %w", err)
		}
		defer client.Close()
		archiver = archive.NewGCSArchiver(client, cfg.ReportBucket, cfg.ReportPrefix, logger)
	}

	m := metrics.New()

	// Собираем сервисы приложения
	services := container.New(container.Deps{
		Users:        storage.NewMemoryUserRepository(),
		Observations: sqlite.NewStore(db),
		Detector:     detector,
		Catalog:      loaded.Catalog,
		Renderer:     report.NewPDFRenderer(cfg.ReportDir, cfg.PDFFont),
		Archiver:     archiver,
		Observer:     m,
		Options: app.ObservationOptions{
			DefaultLocation:   cfg.DefaultLocation,
			DefaultSupervisor: cfg.DefaultSupervisor,
			Logger:            logger,
		},
	})

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, services, logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTPAddr != "" {
		server := web.NewServer(services, m.Handler(), logger).NewHTTPServer(cfg.HTTPAddr)

		g.Go(func() error {
			logger.Info("http api listening", "addr", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http api: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if bot != nil {
		g.Go(func() error {
			logger.Info("bot is running")
			return bot.Run(gctx)
		})
	}

	return g.Wait()
}
