package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/api"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/backend"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/config"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/jobs"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/server"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/store"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}

	logger := config.SetupLogger(cfg)

	st, err := store.New(cfg.DownloadDir, cfg.TempDir)
	if err != nil {
		log.Fatalf("error preparing filesystem: %v", err)
	}

	be := backend.NewClient(st.TempDir())
	registry := jobs.NewRegistry()
	manager := jobs.NewManager(registry, st, be, logger, cfg.MaxConcurrentJobs)

	sweeper := jobs.NewSweeper(registry, st, cfg.SweepInterval, cfg.RetentionWindow, logger)
	sweeper.Start()
	defer sweeper.Stop()

	handler := api.NewHandler(manager, be, cfg.MaxSearchResults, logger)
	router := api.NewRouter(handler, logger, cfg.AllowedOrigins)

	fmt.Println(">>> 🎬 YTDL Server started")
	logger.Info("configuration loaded",
		slog.String("version", config.Version),
		slog.String("addr", cfg.Addr()),
		slog.String("download_dir", cfg.DownloadDir),
		slog.Duration("retention", cfg.RetentionWindow),
	)

	if err := server.New(cfg, logger, router).Run(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		log.Fatalf("server exited with error: %v", err)
	}

	logger.Info("server stopped")
}
