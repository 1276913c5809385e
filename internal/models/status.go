package models

// Status represents the lifecycle state of a download job.
type Status string

const (
	// StatusQueued means the job is registered but the worker has not started yet
	StatusQueued Status = "queued"

	// StatusDownloading means the network fetch is in progress
	StatusDownloading Status = "downloading"

	// StatusProcessing means the fetch finished and ffmpeg is muxing or extracting audio
	StatusProcessing Status = "processing"

	// StatusCompleted means the file is on disk and ready to serve
	StatusCompleted Status = "completed"

	// StatusError means the job failed; Error carries the reason
	StatusError Status = "error"
)

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the job reached a final state.
// Terminal jobs are immutable until the sweeper removes them.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// IsActive reports whether a worker is still bound to the job.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusDownloading || s == StatusProcessing
}
