package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires routes and global middleware.
func NewRouter(h *Handler, logger *slog.Logger, allowedOrigins string) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(Metrics())
	r.Use(CORS(allowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/video_info", h.VideoInfo)
		r.Post("/download", h.CreateDownload)
		r.Get("/progress/{jobID}", h.Progress)
		r.Get("/download_file/{jobID}", h.DownloadFile)
	})

	r.Get("/health/live", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
