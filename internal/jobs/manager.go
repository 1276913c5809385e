// Package jobs implements the download job lifecycle: the registry holding
// job state, the manager running background workers, and the sweeper
// evicting expired entries.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/backend"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/models"
	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/store"
)

const (
	metadataCacheSize = 256
	metadataCacheTTL  = 15 * time.Minute
)

// Manager orchestrates download jobs: it creates registry records, spawns
// one worker goroutine per job and finalizes state on completion or
// failure. Callers never block on a download; progress is observed by
// polling GetProgress.
type Manager struct {
	registry *Registry
	store    *store.Store
	backend  backend.Backend
	logger   *slog.Logger

	metaCache *expirable.LRU[string, *backend.VideoMetadata]

	// slots bounds concurrent downloads; a worker that cannot get a slot
	// within slotWait fails with "server busy" instead of queueing forever.
	slots    chan struct{}
	slotWait time.Duration

	now func() time.Time
}

// NewManager wires the lifecycle manager. maxConcurrent bounds the number
// of simultaneously running downloads.
func NewManager(registry *Registry, st *store.Store, be backend.Backend, logger *slog.Logger, maxConcurrent int) *Manager {
	return &Manager{
		registry:  registry,
		store:     st,
		backend:   be,
		logger:    logger.With(slog.String("component", "jobs")),
		metaCache: expirable.NewLRU[string, *backend.VideoMetadata](metadataCacheSize, nil, metadataCacheTTL),
		slots:     make(chan struct{}, maxConcurrent),
		slotWait:  10 * time.Second,
		now:       time.Now,
	}
}

// JobID derives the job identity from the video id and the requested
// variant. Including the variant lets the same video download concurrently
// at different qualities without tripping the duplicate check.
func JobID(videoID, quality string, audioOnly bool) string {
	if audioOnly {
		return videoID + "_audio"
	}
	return videoID + "_" + quality
}

// StartDownload registers a job for the url and launches its worker.
// Returns the job id immediately; it does not wait for completion.
func (m *Manager) StartDownload(url, quality string, audioOnly bool) (string, error) {
	videoID, err := backend.ExtractVideoID(url)
	if err != nil {
		return "", err
	}

	if !audioOnly {
		if quality == "" {
			quality = "highest"
		}
		if !backend.ValidQuality(quality) {
			return "", fmt.Errorf("%w: %q", ErrInvalidQuality, quality)
		}
	}

	job := &models.Job{
		ID:        JobID(videoID, quality, audioOnly),
		VideoID:   videoID,
		URL:       url,
		Status:    models.StatusQueued,
		Quality:   quality,
		AudioOnly: audioOnly,
		CreatedAt: m.now(),
	}
	if err := m.registry.Create(job); err != nil {
		return "", err
	}
	jobsStartedTotal.Inc()

	m.logger.Info("job accepted",
		slog.String("job_id", job.ID),
		slog.String("url", url),
		slog.String("quality", quality),
		slog.Bool("audio_only", audioOnly),
	)

	go m.run(job.ID, videoID, quality, audioOnly)

	return job.ID, nil
}

// GetProgress returns a snapshot of the job state.
func (m *Manager) GetProgress(jobID string) (models.Job, error) {
	return m.registry.Get(jobID)
}

// GetResultFile returns the path and user-facing filename of a finished
// download. The error distinguishes unknown jobs, jobs still running,
// failed jobs and files already evicted.
func (m *Manager) GetResultFile(jobID string) (string, string, error) {
	job, err := m.registry.Get(jobID)
	if err != nil {
		return "", "", err
	}

	switch job.Status {
	case models.StatusCompleted:
		if _, err := os.Stat(job.ResultPath); err != nil {
			return "", "", ErrFileMissing
		}
		return job.ResultPath, job.Filename, nil
	case models.StatusError:
		return "", "", fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
	default:
		return "", "", ErrNotReady
	}
}

// Metadata returns video metadata, serving repeat lookups from the LRU
// cache.
func (m *Manager) Metadata(ctx context.Context, videoID string) (*backend.VideoMetadata, error) {
	if meta, ok := m.metaCache.Get(videoID); ok {
		metadataCacheHits.Inc()
		return meta, nil
	}
	metadataCacheMisses.Inc()

	meta, err := m.backend.FetchMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}
	m.metaCache.Add(videoID, meta)
	return meta, nil
}

// run is the worker goroutine bound to one job. It is the record's only
// writer until a terminal state is reached.
func (m *Manager) run(jobID, videoID, quality string, audioOnly bool) {
	defer func() {
		if r := recover(); r != nil {
			m.fail(jobID, "internal", fmt.Errorf("worker panic: %v", r))
		}
	}()

	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-time.After(m.slotWait):
		m.fail(jobID, "queue", fmt.Errorf("server busy, try again later"))
		return
	}

	activeDownloads.Inc()
	defer activeDownloads.Dec()

	ctx := context.Background()

	meta, err := m.Metadata(ctx, videoID)
	if err != nil {
		m.fail(jobID, "metadata", err)
		return
	}

	filename := downloadFilename(meta.Title, quality, audioOnly)
	m.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusDownloading
		j.Title = meta.Title
		j.Filename = filename
	})

	events := backend.DownloadEvents{
		OnProgress: func(pct float64) {
			m.registry.Update(jobID, func(j *models.Job) {
				// The adapter guarantees monotonicity within one fetch;
				// the guard keeps a late callback from moving it back.
				if j.Status == models.StatusDownloading && pct > j.Progress {
					j.Progress = pct
				}
			})
		},
		OnProcessing: func() {
			m.registry.Update(jobID, func(j *models.Job) {
				j.Status = models.StatusProcessing
				if j.Progress < 99 {
					j.Progress = 99
				}
			})
		},
	}

	produced, err := m.backend.Download(ctx, videoID, quality, audioOnly, events)
	if err != nil {
		m.fail(jobID, "download", err)
		return
	}

	final, err := m.store.Place(jobID, produced)
	if err != nil {
		m.fail(jobID, "store", err)
		return
	}

	m.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusCompleted
		j.Progress = 100
		j.ResultPath = final
	})
	jobsFinishedTotal.WithLabelValues("completed").Inc()

	m.logger.Info("job completed",
		slog.String("job_id", jobID),
		slog.String("path", final),
	)
}

// fail moves the job to the error state, leaving progress at its last
// reported value.
func (m *Manager) fail(jobID, stage string, err error) {
	m.logger.Error("job failed",
		slog.String("job_id", jobID),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	m.registry.Update(jobID, func(j *models.Job) {
		j.Status = models.StatusError
		j.Error = err.Error()
	})
	jobsFinishedTotal.WithLabelValues("error").Inc()
}

// downloadFilename builds the user-facing attachment name.
func downloadFilename(title, quality string, audioOnly bool) string {
	safe := store.SanitizeFilename(title)
	if safe == "" {
		safe = "video"
	}
	if audioOnly {
		return safe + ".mp3"
	}
	return fmt.Sprintf("%s_%s.mp4", safe, quality)
}
