package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "scans_completed_total",
		Help:      "Total number of completed library scans",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinedex",
		Name:      "scan_duration_seconds",
		Help:      "Duration of full library scans",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
	})

	FilesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "files_scanned_total",
		Help:      "Files seen by the scanner, by classification",
	}, []string{"result"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "jobs_processed_total",
		Help:      "Enrichment jobs finished, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinedex",
		Name:      "stage_duration_seconds",
		Help:      "Duration of enrichment pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"stage"})

	ScenesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "scenes_detected_total",
		Help:      "Total number of scenes detected",
	})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected on scene posters",
	})

	EmbeddingsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "embeddings_stored_total",
		Help:      "Scene embeddings written, by model",
	}, []string{"model"})

	ClusterRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "cluster_runs_total",
		Help:      "Clustering passes executed, by modality",
	}, []string{"modality"})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cinedex",
		Name:      "queue_depth",
		Help:      "Enrichment queue depth, by status",
	}, []string{"status"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinedex",
		Name:      "search_duration_seconds",
		Help:      "Duration of search requests",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinedex",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinedex",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
