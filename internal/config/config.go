// Package config loads and validates server settings from environment
// variables. A .env file is honored when present (loaded in main).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Config holds all server settings in correct types.
type Config struct {
	Host string
	Port int

	DownloadDir string
	TempDir     string

	// RetentionWindow is how long finished jobs and their files are kept.
	RetentionWindow time.Duration
	// SweepInterval is how often the sweeper scans for expired entries.
	SweepInterval time.Duration

	MaxSearchResults  int
	MaxConcurrentJobs int

	LogLevel  slog.Level
	LogFormat string

	AllowedOrigins string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from the environment, applying defaults and
// validating values. It is the only way to obtain a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Host = getEnv("HOST", "0.0.0.0")
	cfg.Port, err = getEnvInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}

	cfg.DownloadDir = getEnv("DOWNLOAD_DIR", "downloads")
	cfg.TempDir = getEnv("TEMP_DIR", "temp")

	cfg.RetentionWindow, err = getEnvDuration("RETENTION_WINDOW", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RETENTION_WINDOW: %w", err)
	}
	cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SWEEP_INTERVAL: %w", err)
	}

	cfg.MaxSearchResults, err = getEnvInt("MAX_SEARCH_RESULTS", 20)
	if err != nil {
		return nil, fmt.Errorf("MAX_SEARCH_RESULTS: %w", err)
	}
	cfg.MaxConcurrentJobs, err = getEnvInt("MAX_CONCURRENT_JOBS", 3)
	if err != nil {
		return nil, fmt.Errorf("MAX_CONCURRENT_JOBS: %w", err)
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT: invalid format %q, expected json or text", cfg.LogFormat)
	}

	cfg.AllowedOrigins = getEnv("ALLOWED_ORIGINS", "*")

	cfg.HTTPReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	validate(cfg)

	return cfg, nil
}

// SetupLogger builds the process-wide slog logger from the config.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// validate fixes up values that would otherwise break the server at runtime.
func validate(cfg *Config) {
	if cfg.MaxConcurrentJobs < 1 {
		slog.Warn("MAX_CONCURRENT_JOBS must be at least 1, resetting to 3")
		cfg.MaxConcurrentJobs = 3
	}
	if cfg.MaxSearchResults < 1 {
		slog.Warn("MAX_SEARCH_RESULTS must be at least 1, resetting to 20")
		cfg.MaxSearchResults = 20
	}
	if cfg.RetentionWindow <= 0 {
		slog.Warn("RETENTION_WINDOW must be positive, resetting to 1h")
		cfg.RetentionWindow = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		slog.Warn("SWEEP_INTERVAL must be positive, resetting to 10m")
		cfg.SweepInterval = 10 * time.Minute
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %q", str)
	}
	return val, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q (use Go format: 30s, 15m, 1h)", str)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid level %q, expected debug, info, warn or error", level)
	}
}
