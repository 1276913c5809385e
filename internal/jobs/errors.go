package jobs

import "errors"

var (
	// ErrDuplicateJob means an active job already exists for the id.
	ErrDuplicateJob = errors.New("a download for this video is already in progress")
	// ErrNotFound means no job exists for the id.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means the job exists but has not completed yet.
	ErrNotReady = errors.New("download not ready")
	// ErrJobFailed means the job reached the error state; the wrapped
	// message carries the reason.
	ErrJobFailed = errors.New("download failed")
	// ErrFileMissing means the job completed but its file is gone
	// (already swept, or never written).
	ErrFileMissing = errors.New("downloaded file no longer exists")
	// ErrInvalidQuality means the requested quality label is unknown.
	ErrInvalidQuality = errors.New("invalid quality")
)
