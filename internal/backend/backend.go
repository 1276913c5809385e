// Package backend adapts the video source: metadata lookup, search and the
// actual fetch/transcode. The lifecycle manager only sees the Backend
// interface, so the whole extraction stack stays swappable and fakeable.
package backend

import (
	"context"
	"errors"
	"fmt"
)

// Quality labels accepted for a download request, lowest to highest.
var Qualities = []string{"144p", "240p", "360p", "480p", "720p", "1080p", "highest"}

// ValidQuality reports whether q is one of the accepted labels.
func ValidQuality(q string) bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// Sentinel errors surfaced by the adapter. Anything else is a download
// failure with a human-readable reason.
var (
	// ErrInvalidURL means the input is not a recognizable video URL or id.
	ErrInvalidURL = errors.New("invalid video URL")
	// ErrUnavailable means the source refuses to serve the video
	// (private, region-locked, removed).
	ErrUnavailable = errors.New("video unavailable")
)

// DownloadError wraps a failure from the fetch or transcode pipeline with
// the stage it happened in.
type DownloadError struct {
	Stage string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed at %s: %v", e.Stage, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// VideoSummary is one search result.
type VideoSummary struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Thumbnail         string `json:"thumbnail"`
	Duration          int    `json:"duration"`
	DurationFormatted string `json:"duration_formatted"`
	Views             int64  `json:"views"`
	ViewsFormatted    string `json:"views_formatted"`
	Author            string `json:"author"`
	URL               string `json:"url"`
}

// VideoMetadata is the full preview for one video.
type VideoMetadata struct {
	VideoID           string   `json:"video_id"`
	Title             string   `json:"title"`
	Thumbnail         string   `json:"thumbnail"`
	Duration          int      `json:"duration"`
	DurationFormatted string   `json:"duration_formatted"`
	Views             int64    `json:"views"`
	ViewsFormatted    string   `json:"views_formatted"`
	Author            string   `json:"author"`
	Description       string   `json:"description"`
	Qualities         []string `json:"qualities"`
}

// DownloadEvents carries the callbacks a download reports through.
type DownloadEvents struct {
	// OnProgress receives non-decreasing percentages while bytes move.
	OnProgress func(percent float64)
	// OnProcessing fires once when the fetch is done and muxing or audio
	// extraction starts. No progress is reported past this point.
	OnProcessing func()
}

func (e DownloadEvents) progress(pct float64) {
	if e.OnProgress != nil {
		e.OnProgress(pct)
	}
}

func (e DownloadEvents) processing() {
	if e.OnProcessing != nil {
		e.OnProcessing()
	}
}

// Backend is the contract the lifecycle manager programs against.
type Backend interface {
	// Search returns up to maxResults video summaries for a text query.
	Search(ctx context.Context, query string, maxResults int) ([]VideoSummary, error)
	// FetchMetadata returns the preview metadata for one video id.
	FetchMetadata(ctx context.Context, videoID string) (*VideoMetadata, error)
	// Download fetches the video (or its audio track when audioOnly) and
	// returns the path of the produced scratch file. The caller owns the
	// file afterwards.
	Download(ctx context.Context, videoID, quality string, audioOnly bool, events DownloadEvents) (string, error)
}
