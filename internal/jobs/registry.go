package jobs

import (
	"sync"
	"time"

	"github.com/Ramprasadgoud26/Youtube-Downloader/internal/models"
)

// Registry is the in-memory job table and the single source of truth for
// progress polling. Each record has one writer at a time (the worker bound
// to it, or the sweeper once it is terminal); reads return copies, so a
// poller never observes a half-updated record.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*models.Job)}
}

// Create inserts a new job. An active job under the same id is rejected
// with ErrDuplicateJob; a terminal leftover is displaced, since a fresh
// request supersedes an old result.
func (r *Registry) Create(job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[job.ID]; ok && existing.Status.IsActive() {
		return ErrDuplicateJob
	}
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

// Get returns a snapshot copy of the job or ErrNotFound.
func (r *Registry) Get(id string) (models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return *job, nil
}

// Update applies a mutation atomically under the registry lock.
func (r *Registry) Update(id string, fn func(*models.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(job)
	return nil
}

// Delete removes the entry. Idempotent.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// ListOlderThan returns snapshot copies of jobs created before the cutoff.
func (r *Registry) ListOlderThan(cutoff time.Time) []models.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Job
	for _, job := range r.jobs {
		if job.CreatedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
