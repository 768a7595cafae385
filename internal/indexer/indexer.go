// Package indexer drives the pipeline cycle: scan the watch folders,
// drain the enrichment queue, recluster, sleep. One instance runs at a
// time; pause/resume and the poll interval are operator settings read
// fresh every cycle.
package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/your-org/cinedex/internal/cluster"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/scanner"
	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
)

const (
	pausedRecheck = 30 * time.Second
	sleepSlice    = 10 * time.Second
)

// Store is the persistence surface the loop itself needs; the scanner
// and worker bring their own.
type Store interface {
	RecoverStuckJobs(ctx context.Context, timeout time.Duration) (int64, error)
	CountJobsByStatus(ctx context.Context) (storage.QueueCounts, error)
	FaceVectorsAll(ctx context.Context) ([]storage.FaceVector, error)
	SceneVectorsByModel(ctx context.Context, modelName string) ([]storage.SceneVector, error)
	UpdateFaceClusters(ctx context.Context, assignments []storage.ClusterAssignment) error
	UpdateSceneClusters(ctx context.Context, assignments []storage.ClusterAssignment) error
}

// Settings supplies the loop tunables.
type Settings interface {
	IndexerState(ctx context.Context) (string, error)
	PollInterval(ctx context.Context) (time.Duration, error)
	ClusterEpsilons(ctx context.Context) (faces, scenes float64, err error)
}

// Scanner runs one filesystem reconciliation pass.
type Scanner interface {
	Run(ctx context.Context) (*scanner.Result, error)
}

// Enricher drains one batch of pending jobs.
type Enricher interface {
	ProcessBatch(ctx context.Context) (int, error)
}

// Events mirrors cluster completions to the bus. May be nil.
type Events interface {
	PublishClusterCompleted(ctx context.Context, modality string, clusters, points, noise int)
}

type Indexer struct {
	store        Store
	settings     Settings
	scanner      Scanner
	worker       Enricher
	events       Events
	stuckTimeout time.Duration
}

func New(store Store, settingsStore Settings, scan Scanner, worker Enricher, events Events, stuckTimeout time.Duration) *Indexer {
	if stuckTimeout <= 0 {
		stuckTimeout = 30 * time.Minute
	}
	return &Indexer{
		store:        store,
		settings:     settingsStore,
		scanner:      scan,
		worker:       worker,
		events:       events,
		stuckTimeout: stuckTimeout,
	}
}

// Run recovers stuck jobs once, then cycles until the context ends.
func (ix *Indexer) Run(ctx context.Context) error {
	recovered, err := ix.store.RecoverStuckJobs(ctx, ix.stuckTimeout)
	if err != nil {
		return err
	}
	if recovered > 0 {
		slog.Warn("recovered stuck jobs from previous run", "count", recovered)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		state, err := ix.settings.IndexerState(ctx)
		if err != nil {
			slog.Warn("read indexer state", "error", err)
			state = settings.StateRunning
		}
		if state == settings.StatePaused {
			slog.Info("indexer paused")
			if !sleepCtx(ctx, pausedRecheck) {
				return ctx.Err()
			}
			continue
		}

		ix.runCycle(ctx)

		if !ix.idle(ctx) {
			return ctx.Err()
		}
	}
}

// runCycle performs scan, enrichment and clustering. Failures are
// logged and the cycle moves on; the next cycle retries.
func (ix *Indexer) runCycle(ctx context.Context) {
	start := time.Now()

	result, err := ix.scanner.Run(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err)
		result = &scanner.Result{}
	}

	processed := 0
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := ix.worker.ProcessBatch(ctx)
		if err != nil {
			slog.Error("enrichment batch failed", "error", err)
			break
		}
		if n == 0 {
			break
		}
		processed += n
	}

	if processed > 0 {
		ix.clusterFaces(ctx)
		ix.clusterScenes(ctx)
	}

	ix.updateQueueDepth(ctx)

	slog.Info("indexer cycle complete",
		"found", result.Found,
		"new", result.New,
		"updated", result.Updated,
		"missing", result.Missing,
		"jobs_processed", processed,
		"duration", time.Since(start).String(),
	)
}

func (ix *Indexer) clusterFaces(ctx context.Context) {
	vectors, err := ix.store.FaceVectorsAll(ctx)
	if err != nil {
		slog.Error("load face vectors for clustering", "error", err)
		return
	}
	epsFaces, _, err := ix.settings.ClusterEpsilons(ctx)
	if err != nil {
		slog.Warn("load cluster epsilons, using defaults", "error", err)
	}

	points := make([]cluster.Point, len(vectors))
	for i, v := range vectors {
		points[i] = cluster.Point{ID: v.FaceID, Vector: v.Vector}
	}
	assignments := cluster.Run(points, cluster.Config{Epsilon: epsFaces, MinClusterSize: 2})

	if err := ix.store.UpdateFaceClusters(ctx, toStoreAssignments(assignments)); err != nil {
		slog.Error("persist face clusters", "error", err)
		return
	}

	clusters, noise := summarize(assignments)
	observability.ClusterRuns.WithLabelValues("faces").Inc()
	if ix.events != nil {
		ix.events.PublishClusterCompleted(ctx, "faces", clusters, len(points), noise)
	}
	slog.Info("face clustering complete", "points", len(points), "clusters", clusters, "noise", noise)
}

func (ix *Indexer) clusterScenes(ctx context.Context) {
	vectors, err := ix.store.SceneVectorsByModel(ctx, models.ModelVisual)
	if err != nil {
		slog.Error("load scene vectors for clustering", "error", err)
		return
	}
	_, epsScenes, err := ix.settings.ClusterEpsilons(ctx)
	if err != nil {
		slog.Warn("load cluster epsilons, using defaults", "error", err)
	}

	points := make([]cluster.Point, len(vectors))
	for i, v := range vectors {
		points[i] = cluster.Point{ID: v.SceneID, Vector: v.Vector}
	}
	assignments := cluster.Run(points, cluster.Config{Epsilon: epsScenes, MinClusterSize: 2})

	if err := ix.store.UpdateSceneClusters(ctx, toStoreAssignments(assignments)); err != nil {
		slog.Error("persist scene clusters", "error", err)
		return
	}

	clusters, noise := summarize(assignments)
	observability.ClusterRuns.WithLabelValues("scenes").Inc()
	if ix.events != nil {
		ix.events.PublishClusterCompleted(ctx, "scenes", clusters, len(points), noise)
	}
	slog.Info("scene clustering complete", "points", len(points), "clusters", clusters, "noise", noise)
}

func (ix *Indexer) updateQueueDepth(ctx context.Context) {
	counts, err := ix.store.CountJobsByStatus(ctx)
	if err != nil {
		slog.Warn("count queue depth", "error", err)
		return
	}
	observability.QueueDepth.WithLabelValues(string(models.JobStatusPending)).Set(float64(counts.Pending))
	observability.QueueDepth.WithLabelValues(string(models.JobStatusProcessing)).Set(float64(counts.Processing))
	observability.QueueDepth.WithLabelValues(string(models.JobStatusComplete)).Set(float64(counts.Complete))
	observability.QueueDepth.WithLabelValues(string(models.JobStatusFailed)).Set(float64(counts.Failed))
}

// idle sleeps out the poll interval in short slices, re-reading the
// tunables each slice so pause and interval edits apply without a
// restart. Returns false when the context ended.
func (ix *Indexer) idle(ctx context.Context) bool {
	start := time.Now()
	for {
		interval, err := ix.settings.PollInterval(ctx)
		if err != nil {
			slog.Warn("read poll interval", "error", err)
			interval = time.Hour
		}
		remaining := interval - time.Since(start)
		if remaining <= 0 {
			return true
		}
		slice := sleepSlice
		if remaining < slice {
			slice = remaining
		}
		if !sleepCtx(ctx, slice) {
			return false
		}

		state, err := ix.settings.IndexerState(ctx)
		if err == nil && state == settings.StatePaused {
			return true
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func toStoreAssignments(assignments []cluster.Assignment) []storage.ClusterAssignment {
	out := make([]storage.ClusterAssignment, len(assignments))
	for i, a := range assignments {
		out[i] = storage.ClusterAssignment{ID: a.ID, ClusterID: a.ClusterID, ClusterOrder: a.Order}
	}
	return out
}

// summarize counts distinct clusters and noise points.
func summarize(assignments []cluster.Assignment) (clusters, noise int) {
	maxID := -1
	for _, a := range assignments {
		if a.ClusterID == cluster.NoiseID {
			noise++
			continue
		}
		if a.ClusterID > maxID {
			maxID = a.ClusterID
		}
	}
	return maxID + 1, noise
}
