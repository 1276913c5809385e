package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytdl_jobs_started_total",
		Help: "Total download jobs accepted.",
	})
	jobsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytdl_jobs_finished_total",
		Help: "Total download jobs reaching a terminal state, by outcome.",
	}, []string{"outcome"})
	activeDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ytdl_active_downloads",
		Help: "Download workers currently running.",
	})
	metadataCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytdl_metadata_cache_hits_total",
		Help: "Metadata LRU cache hits.",
	})
	metadataCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytdl_metadata_cache_misses_total",
		Help: "Metadata LRU cache misses.",
	})
	sweptJobsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytdl_swept_jobs_total",
		Help: "Jobs evicted by the cleanup sweeper.",
	})
)
