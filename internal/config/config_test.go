package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, expected 8080", cfg.Port)
	}
	if cfg.DownloadDir != "downloads" {
		t.Errorf("DownloadDir = %q, expected %q", cfg.DownloadDir, "downloads")
	}
	if cfg.RetentionWindow != time.Hour {
		t.Errorf("RetentionWindow = %v, expected 1h", cfg.RetentionWindow)
	}
	if cfg.MaxSearchResults != 20 {
		t.Errorf("MaxSearchResults = %d, expected 20", cfg.MaxSearchResults)
	}
	if cfg.MaxConcurrentJobs != 3 {
		t.Errorf("MaxConcurrentJobs = %d, expected 3", cfg.MaxConcurrentJobs)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, expected info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RETENTION_WINDOW", "30m")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, expected 9090", cfg.Port)
	}
	if cfg.RetentionWindow != 30*time.Minute {
		t.Errorf("RetentionWindow = %v, expected 30m", cfg.RetentionWindow)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, expected 1m", cfg.SweepInterval)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, expected debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, expected json", cfg.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "not-a-number"},
		{"RETENTION_WINDOW", "soon"},
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			t.Setenv(test.key, test.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded, expected error", test.key, test.value)
			}
		})
	}
}

func TestLoad_ValidationResets(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_JOBS", "0")
	t.Setenv("RETENTION_WINDOW", "-1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MaxConcurrentJobs != 3 {
		t.Errorf("MaxConcurrentJobs = %d, expected reset to 3", cfg.MaxConcurrentJobs)
	}
	if cfg.RetentionWindow != time.Hour {
		t.Errorf("RetentionWindow = %v, expected reset to 1h", cfg.RetentionWindow)
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 8080}
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, expected %q", got, "127.0.0.1:8080")
	}
}
