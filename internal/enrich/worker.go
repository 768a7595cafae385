// Package enrich drains the enrichment queue: per job it probes the
// file, segments it into scenes and runs the enabled model stages
// through the inference sidecar. Stage-level errors fail the job;
// per-item errors inside a stage are logged and skipped.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/media"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/settings"
)

// Store is the persistence surface the worker drives.
type Store interface {
	GetFile(ctx context.Context, id uuid.UUID) (*models.File, error)
	PendingJobs(ctx context.Context, limit int) ([]models.Job, error)
	MarkJobProcessing(ctx context.Context, jobID uuid.UUID, totalStages int) error
	UpdateJobStage(ctx context.Context, jobID uuid.UUID, stage string, stageNum int) error
	CompleteJob(ctx context.Context, jobID, fileID uuid.UUID) error
	FailJob(ctx context.Context, jobID uuid.UUID, errMsg string) error
	SetFileMediaInfo(ctx context.Context, id uuid.UUID, duration float64, width, height int, fps float64, codec string, audioTracks int) error
	UpsertEmbedding(ctx context.Context, e *models.Embedding) error
	UpdateSceneTranscript(ctx context.Context, sceneID uuid.UUID, transcript string) error
	DeleteFacesForFile(ctx context.Context, fileID uuid.UUID) error
	InsertFaces(ctx context.Context, faces []models.Face) error
}

// Settings supplies watch roots and the stage toggle document, read
// fresh per job so toggles apply without a restart.
type Settings interface {
	WatchFolders(ctx context.Context) ([]string, error)
	EnrichmentModels(ctx context.Context) (settings.StageToggles, error)
}

// Inference is the model sidecar surface the stages call.
type Inference interface {
	EmbedImage(ctx context.Context, image []byte) (*embed.Result, error)
	EmbedTranscript(ctx context.Context, text string) (*embed.Result, error)
	DetectFaces(ctx context.Context, image []byte) ([]embed.FaceDetection, error)
	Transcribe(ctx context.Context, wav []byte) ([]embed.Segment, error)
}

// Prober reads container metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*media.ProbeResult, error)
}

// AudioExtractor renders the speech-model input WAV.
type AudioExtractor interface {
	ExtractAudioWAV(ctx context.Context, path, outPath string) error
}

// SceneDetector replaces a file's scenes. Implemented by
// segment.Segmenter.
type SceneDetector interface {
	Process(ctx context.Context, file *models.File) ([]models.Scene, error)
}

// PosterSource reads back rendered poster images for the model stages.
type PosterSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Events mirrors job lifecycle to the event bus. May be nil.
type Events interface {
	PublishJobStarted(ctx context.Context, job *models.Job, file *models.File)
	PublishJobStage(ctx context.Context, jobID, fileID uuid.UUID, stage string, stageNum, totalStages int)
	PublishJobCompleted(ctx context.Context, jobID, fileID uuid.UUID)
	PublishJobFailed(ctx context.Context, jobID, fileID uuid.UUID, errMsg string)
}

type Worker struct {
	store     Store
	settings  Settings
	inference Inference
	prober    Prober
	audio     AudioExtractor
	segmenter SceneDetector
	posters   PosterSource
	events    Events
	batchSize int
}

func NewWorker(store Store, settingsStore Settings, inference Inference, prober Prober, audio AudioExtractor, segmenter SceneDetector, posters PosterSource, events Events, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Worker{
		store:     store,
		settings:  settingsStore,
		inference: inference,
		prober:    prober,
		audio:     audio,
		segmenter: segmenter,
		posters:   posters,
		events:    events,
		batchSize: batchSize,
	}
}

// ProcessBatch claims one FIFO batch of pending jobs and runs them to a
// terminal state. Jobs whose watch root is unreachable are left pending
// for a later pass. Returns how many jobs finished (complete or
// failed).
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	jobs, err := w.store.PendingJobs(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending jobs: %w", err)
	}

	processed := 0
	for i := range jobs {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		ran, err := w.processJob(ctx, &jobs[i])
		if err != nil {
			return processed, err
		}
		if ran {
			processed++
		}
	}
	return processed, nil
}

// processJob runs one job to complete or failed. The returned bool is
// false when the job was skipped because its watch root is unmounted.
// The returned error is reserved for store failures; pipeline errors
// fail the job instead.
func (w *Worker) processJob(ctx context.Context, job *models.Job) (bool, error) {
	file, err := w.store.GetFile(ctx, job.FileID)
	if err != nil {
		return false, err
	}
	if file == nil {
		return true, w.failJob(ctx, job, file, "file record missing")
	}

	roots, err := w.settings.WatchFolders(ctx)
	if err != nil {
		return false, err
	}
	if !rootAccessible(file.Path, roots) {
		slog.Debug("watch root unreachable, job stays pending",
			"job_id", job.ID, "path", file.Path)
		return false, nil
	}
	if _, err := os.Stat(file.Path); err != nil {
		return true, w.failJob(ctx, job, file, fmt.Sprintf("file not found: %s", file.Path))
	}

	toggles, err := w.settings.EnrichmentModels(ctx)
	if err != nil {
		slog.Warn("load stage toggles, using defaults", "error", err)
	}
	stages := w.buildStages(toggles)

	if err := w.store.MarkJobProcessing(ctx, job.ID, len(stages)); err != nil {
		return false, err
	}
	job.TotalStages = len(stages)
	if w.events != nil {
		w.events.PublishJobStarted(ctx, job, file)
	}
	slog.Info("enrichment started",
		"job_id", job.ID, "file_id", file.ID, "path", file.Path, "stages", len(stages))

	jc := &jobContext{file: file}
	for i, st := range stages {
		if err := w.store.UpdateJobStage(ctx, job.ID, st.name, i+1); err != nil {
			return false, err
		}
		if w.events != nil {
			w.events.PublishJobStage(ctx, job.ID, file.ID, st.name, i+1, len(stages))
		}

		start := time.Now()
		err := st.run(ctx, jc)
		observability.StageDuration.WithLabelValues(st.name).Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Error("enrichment stage failed",
				"job_id", job.ID, "file_id", file.ID, "stage", st.name, "error", err)
			return true, w.failJob(ctx, job, file, err.Error())
		}
	}

	if err := w.store.CompleteJob(ctx, job.ID, file.ID); err != nil {
		return false, err
	}
	observability.JobsProcessed.WithLabelValues(string(models.JobStatusComplete)).Inc()
	if w.events != nil {
		w.events.PublishJobCompleted(ctx, job.ID, file.ID)
	}
	slog.Info("enrichment complete", "job_id", job.ID, "file_id", file.ID)
	return true, nil
}

func (w *Worker) failJob(ctx context.Context, job *models.Job, file *models.File, msg string) error {
	if err := w.store.FailJob(ctx, job.ID, msg); err != nil {
		return err
	}
	observability.JobsProcessed.WithLabelValues(string(models.JobStatusFailed)).Inc()
	if w.events != nil {
		fileID := job.FileID
		if file != nil {
			fileID = file.ID
		}
		w.events.PublishJobFailed(ctx, job.ID, fileID, msg)
	}
	return nil
}

// jobContext carries per-job state across stages: the file row
// (metadata stage refreshes it) and the scene list the segmenter
// produced.
type jobContext struct {
	file   *models.File
	scenes []models.Scene
}

// rootAccessible reports whether the path lies under a watch root whose
// directory currently exists. Unmounted or unconfigured roots make a
// job wait instead of fail.
func rootAccessible(path string, roots []string) bool {
	for _, root := range roots {
		if root == "" || !underRoot(path, root) {
			continue
		}
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func underRoot(path, root string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
