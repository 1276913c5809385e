package jobs

import (
	"log/slog"
	"os"
	"time"

	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/store"
)

// Sweeper periodically evicts jobs and files older than the retention
// window, regardless of their status. Sweeping is best-effort: one entry's
// failure never aborts the rest of the pass.
type Sweeper struct {
	registry  *Registry
	store     *store.Store
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger

	// now is injected so tests can simulate elapsed time.
	now func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewSweeper(registry *Registry, st *store.Store, interval, retention time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		registry:  registry,
		store:     st,
		interval:  interval,
		retention: retention,
		logger:    logger.With(slog.String("component", "sweeper")),
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the periodic sweep loop.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep runs one eviction pass: expired jobs (file first, then registry
// entry), then orphaned files whose job record is already gone, then stale
// scratch files.
func (s *Sweeper) Sweep() {
	cutoff := s.now().Add(-s.retention)

	for _, job := range s.registry.ListOlderThan(cutoff) {
		if err := s.store.Remove(job.ID); err != nil {
			s.logger.Warn("could not remove file, skipping entry",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.registry.Delete(job.ID)
		sweptJobsTotal.Inc()
		s.logger.Info("evicted expired job",
			slog.String("job_id", job.ID),
			slog.String("status", job.Status.String()),
		)
	}

	// Files left behind by a previous process run have no registry entry
	// but still age out of the download directory.
	for _, entry := range s.store.ListOlderThan(cutoff) {
		if _, err := s.registry.Get(entry.JobID); err == nil {
			continue
		}
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove orphaned file",
				slog.String("path", entry.Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.logger.Info("removed orphaned file", slog.String("path", entry.Path))
	}

	if n := s.store.SweepTemp(cutoff); n > 0 {
		s.logger.Info("removed stale scratch files", slog.Int("count", n))
	}
}
