// Package api exposes the HTTP surface: search, metadata lookup, download
// job creation, progress polling and file retrieval.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/backend"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/jobs"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/models"
)

type Handler struct {
	manager    *jobs.Manager
	backend    backend.Backend
	maxResults int
	logger     *slog.Logger
}

func NewHandler(manager *jobs.Manager, be backend.Backend, maxResults int, logger *slog.Logger) *Handler {
	return &Handler{
		manager:    manager,
		backend:    be,
		maxResults: maxResults,
		logger:     logger.With(slog.String("component", "api")),
	}
}

// Search handles GET /api/search?q=&max_results=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "no search query provided")
		return
	}

	maxResults := h.maxResults
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "max_results must be a positive integer")
			return
		}
		if n < maxResults {
			maxResults = n
		}
	}

	videos, err := h.backend.Search(r.Context(), query, maxResults)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		respondError(w, http.StatusBadGateway, "search failed")
		return
	}
	if videos == nil {
		videos = []backend.VideoSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"videos": videos,
		"total":  len(videos),
	})
}

// VideoInfo handles GET /api/video_info?url=.
func (h *Handler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respondError(w, http.StatusBadRequest, "no URL provided")
		return
	}

	videoID, err := backend.ExtractVideoID(url)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not extract video ID from URL")
		return
	}

	meta, err := h.manager.Metadata(r.Context(), videoID)
	if err != nil {
		h.writeBackendError(w, videoID, err)
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

// CreateDownload handles POST /api/download.
func (h *Handler) CreateDownload(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "no URL provided")
		return
	}

	jobID, err := h.manager.StartDownload(req.URL, req.Quality, req.AudioOnly)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrInvalidURL):
			respondError(w, http.StatusBadRequest, "could not extract video ID from URL")
		case errors.Is(err, jobs.ErrInvalidQuality):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, jobs.ErrDuplicateJob):
			respondError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("could not start download", slog.String("url", req.URL), slog.String("error", err.Error()))
			respondError(w, http.StatusInternalServerError, "could not start download")
		}
		return
	}

	videoID, _ := backend.ExtractVideoID(req.URL)
	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       jobID,
		"video_id":     videoID,
		"status":       models.StatusQueued.String(),
		"progress_url": fmt.Sprintf("/api/progress/%s", jobID),
		"download_url": fmt.Sprintf("/api/download_file/%s", jobID),
	})
}

// Progress handles GET /api/progress/{jobID}.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.manager.GetProgress(jobID)
	if err != nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// DownloadFile handles GET /api/download_file/{jobID}: streams the
// finished file as an attachment.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	path, filename, err := h.manager.GetResultFile(jobID)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			respondError(w, http.StatusNotFound, "job not found")
		case errors.Is(err, jobs.ErrNotReady):
			respondError(w, http.StatusNotFound, "download not ready")
		case errors.Is(err, jobs.ErrFileMissing):
			respondError(w, http.StatusNotFound, "download expired")
		case errors.Is(err, jobs.ErrJobFailed):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "could not serve file")
		}
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", contentTypeFor(path))
	http.ServeFile(w, r, path)
}

// Health handles GET /health/live.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeBackendError(w http.ResponseWriter, videoID string, err error) {
	switch {
	case errors.Is(err, backend.ErrInvalidURL):
		respondError(w, http.StatusBadRequest, "invalid video URL")
	case errors.Is(err, backend.ErrUnavailable):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("backend error", slog.String("video_id", videoID), slog.String("error", err.Error()))
		respondError(w, http.StatusBadGateway, "could not fetch video information")
	}
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "video/mp4"
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
