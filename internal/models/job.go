package models

import (
	"time"
)

// Job holds the full state of one download request.
// A job is written only by the worker goroutine bound to it; readers get
// copies from the registry, never the live record.
type Job struct {
	ID        string  `json:"id"`
	VideoID   string  `json:"video_id"`
	URL       string  `json:"-"`
	Title     string  `json:"title,omitempty"`
	Status    Status  `json:"status"`
	Progress  float64 `json:"progress"`
	Quality   string  `json:"quality"`
	AudioOnly bool    `json:"audio_only"`
	Filename  string  `json:"filename,omitempty"`
	// ResultPath is set only when Status == completed.
	ResultPath string `json:"-"`
	// Error is set only when Status == error.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL       string `json:"url"`
	Quality   string `json:"quality"`
	AudioOnly bool   `json:"audio_only"`
}
