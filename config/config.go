package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr   = "127.0.0.1:8080"
	defaultDBPath     = "data/observations.db"
	defaultReportDir  = "data/reports"
	defaultModelPath  = "models/ppe.onnx"
	defaultConfidence = 0.5
	defaultLocation   = "Site A"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string // пустое значение отключает HTTP API

	DBPath    string
	ReportDir string

	ModelPath    string
	ModelClasses string // имена классов через запятую, пусто = классы по умолчанию
	Confidence   float64
	CatalogPath  string // YAML-каталог категорий, пусто = встроенный

	DefaultLocation   string
	DefaultSupervisor string
	PDFFont           string

	ReportBucket string // GCS-бакет для архива отчётов, пусто = без архива
	ReportPrefix string

	LogLevel slog.Level
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:          defaultHTTPAddr,
		DBPath:            getEnv("DB_PATH", defaultDBPath),
		ReportDir:         getEnv("REPORT_DIR", defaultReportDir),
		ModelPath:         getEnv("MODEL_PATH", defaultModelPath),
		ModelClasses:      os.Getenv("MODEL_CLASSES"),
		Confidence:        defaultConfidence,
		CatalogPath:       os.Getenv("CATALOG_PATH"),
		DefaultLocation:   getEnv("DEFAULT_LOCATION", defaultLocation),
		DefaultSupervisor: os.Getenv("DEFAULT_SUPERVISOR"),
		PDFFont:           os.Getenv("PDF_FONT"),
		ReportBucket:      os.Getenv("REPORT_BUCKET"),
		ReportPrefix:      getEnv("REPORT_PREFIX", "safety-cards"),
		LogLevel:          slog.LevelInfo,
	}

	// HTTP_ADDR="" явно отключает API
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}

	if v := os.Getenv("CONFIDENCE"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil || c <= 0 || c > 1 {
			return nil, fmt.Errorf("CONFIDENCE must be in (0, 1], got %q", v)
		}
		cfg.Confidence = c
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		return nil, errors.New("nothing to run: set TELEGRAM_TOKEN or HTTP_ADDR")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
