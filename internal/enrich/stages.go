package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/settings"
)

// Stage names as they appear in job progress and settings toggles.
const (
	StageMetadata        = "metadata"
	StageSceneDetection  = "scene_detection"
	StageClip            = "clip"
	StageWhisper         = "whisper"
	StageTranscriptEmbed = "transcript_embed"
	StageArcface         = "arcface"
)

type stageFunc func(ctx context.Context, jc *jobContext) error

type stage struct {
	name string
	run  stageFunc
}

// buildStages assembles the per-job pipeline. Metadata and scene
// detection always run; the model stages follow their toggles.
func (w *Worker) buildStages(t settings.StageToggles) []stage {
	stages := []stage{
		{StageMetadata, w.stageMetadata},
		{StageSceneDetection, w.stageSceneDetection},
	}
	if t.Clip {
		stages = append(stages, stage{StageClip, w.stageClip})
	}
	if t.Whisper {
		stages = append(stages, stage{StageWhisper, w.stageWhisper})
	}
	if t.TranscriptEmbed {
		stages = append(stages, stage{StageTranscriptEmbed, w.stageTranscriptEmbed})
	}
	if t.Arcface {
		stages = append(stages, stage{StageArcface, w.stageArcface})
	}
	return stages
}

// stageMetadata probes the container when the file row has no media
// attributes yet. An unreadable container is a stage error.
func (w *Worker) stageMetadata(ctx context.Context, jc *jobContext) error {
	f := jc.file
	if f.DurationSeconds != nil {
		return nil
	}

	probe, err := w.prober.Probe(ctx, f.Path)
	if err != nil {
		return err
	}
	if err := w.store.SetFileMediaInfo(ctx, f.ID,
		probe.Duration, probe.Width, probe.Height, probe.FPS, probe.Codec, probe.AudioTracks); err != nil {
		return err
	}

	f.DurationSeconds = &probe.Duration
	f.Width = &probe.Width
	f.Height = &probe.Height
	f.FPS = &probe.FPS
	f.Codec = &probe.Codec
	f.AudioTracks = &probe.AudioTracks
	return nil
}

func (w *Worker) stageSceneDetection(ctx context.Context, jc *jobContext) error {
	scenes, err := w.segmenter.Process(ctx, jc.file)
	if err != nil {
		return err
	}
	jc.scenes = scenes
	return nil
}

// stageClip embeds every scene poster. A single bad poster is skipped;
// an unreachable sidecar fails the stage so the job retries later.
func (w *Worker) stageClip(ctx context.Context, jc *jobContext) error {
	for i := range jc.scenes {
		scene := &jc.scenes[i]
		if scene.PosterKey == nil {
			continue
		}
		image, err := w.posters.Get(ctx, *scene.PosterKey)
		if err != nil {
			slog.Warn("poster read failed, scene left without visual embedding",
				"scene_id", scene.ID, "key", *scene.PosterKey, "error", err)
			continue
		}
		result, err := w.inference.EmbedImage(ctx, image)
		if err != nil {
			if errors.Is(err, embed.ErrUnavailable) {
				return err
			}
			slog.Warn("image embedding failed, scene skipped",
				"scene_id", scene.ID, "error", err)
			continue
		}
		if err := w.store.UpsertEmbedding(ctx, embeddingRow(scene.ID, models.ModelVisual, result)); err != nil {
			slog.Warn("store visual embedding failed, scene skipped",
				"scene_id", scene.ID, "error", err)
			continue
		}
		observability.EmbeddingsStored.WithLabelValues(models.ModelVisual).Inc()
	}
	return nil
}

// stageWhisper transcribes the audio track and distributes segment text
// onto scenes by interval overlap. Files without audio skip cleanly.
func (w *Worker) stageWhisper(ctx context.Context, jc *jobContext) error {
	f := jc.file
	if f.AudioTracks != nil && *f.AudioTracks == 0 {
		slog.Info("no audio tracks, skipping transcription", "file_id", f.ID)
		return nil
	}

	dir, err := os.MkdirTemp("", "cinedex-audio-")
	if err != nil {
		return fmt.Errorf("create audio temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "audio.wav")
	if err := w.audio.ExtractAudioWAV(ctx, f.Path, wavPath); err != nil {
		return err
	}
	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return fmt.Errorf("read extracted audio: %w", err)
	}

	segments, err := w.inference.Transcribe(ctx, wav)
	if err != nil {
		return err
	}

	transcripts := assignTranscripts(segments, jc.scenes)
	for i := range jc.scenes {
		scene := &jc.scenes[i]
		text, ok := transcripts[scene.ID]
		if !ok {
			continue
		}
		if err := w.store.UpdateSceneTranscript(ctx, scene.ID, text); err != nil {
			slog.Warn("store transcript failed, scene skipped",
				"scene_id", scene.ID, "error", err)
			continue
		}
		scene.Transcript = &text
	}
	return nil
}

// assignTranscripts maps segment text onto the scenes each segment
// overlaps, joined with single spaces in segment order.
func assignTranscripts(segments []embed.Segment, scenes []models.Scene) map[uuid.UUID]string {
	parts := make(map[uuid.UUID][]string)
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		for _, scene := range scenes {
			if seg.Start < scene.EndTC && seg.End > scene.StartTC {
				parts[scene.ID] = append(parts[scene.ID], text)
			}
		}
	}

	out := make(map[uuid.UUID]string, len(parts))
	for id, p := range parts {
		out[id] = strings.Join(p, " ")
	}
	return out
}

// stageTranscriptEmbed embeds every non-empty scene transcript
// produced earlier in this job.
func (w *Worker) stageTranscriptEmbed(ctx context.Context, jc *jobContext) error {
	for i := range jc.scenes {
		scene := &jc.scenes[i]
		if scene.Transcript == nil || strings.TrimSpace(*scene.Transcript) == "" {
			continue
		}
		result, err := w.inference.EmbedTranscript(ctx, *scene.Transcript)
		if err != nil {
			if errors.Is(err, embed.ErrUnavailable) {
				return err
			}
			slog.Warn("transcript embedding failed, scene skipped",
				"scene_id", scene.ID, "error", err)
			continue
		}
		if err := w.store.UpsertEmbedding(ctx, embeddingRow(scene.ID, models.ModelTranscript, result)); err != nil {
			slog.Warn("store transcript embedding failed, scene skipped",
				"scene_id", scene.ID, "error", err)
			continue
		}
		observability.EmbeddingsStored.WithLabelValues(models.ModelTranscript).Inc()
	}
	return nil
}

// stageArcface replaces the file's face rows with fresh detections
// from the scene posters.
func (w *Worker) stageArcface(ctx context.Context, jc *jobContext) error {
	if err := w.store.DeleteFacesForFile(ctx, jc.file.ID); err != nil {
		return err
	}

	var faces []models.Face
	for i := range jc.scenes {
		scene := &jc.scenes[i]
		if scene.PosterKey == nil {
			continue
		}
		image, err := w.posters.Get(ctx, *scene.PosterKey)
		if err != nil {
			slog.Warn("poster read failed, scene skipped for face detection",
				"scene_id", scene.ID, "key", *scene.PosterKey, "error", err)
			continue
		}
		detections, err := w.inference.DetectFaces(ctx, image)
		if err != nil {
			if errors.Is(err, embed.ErrUnavailable) {
				return err
			}
			slog.Warn("face detection failed, scene skipped",
				"scene_id", scene.ID, "error", err)
			continue
		}
		for _, det := range detections {
			faces = append(faces, models.Face{
				ID:        uuid.New(),
				SceneID:   scene.ID,
				Embedding: det.Vector,
				BboxX:     det.BBox[0],
				BboxY:     det.BBox[1],
				BboxW:     det.BBox[2],
				BboxH:     det.BBox[3],
			})
		}
	}

	if len(faces) == 0 {
		return nil
	}
	if err := w.store.InsertFaces(ctx, faces); err != nil {
		return err
	}
	observability.FacesDetected.Add(float64(len(faces)))
	return nil
}

func embeddingRow(sceneID uuid.UUID, modelName string, r *embed.Result) *models.Embedding {
	dim := r.Dimension
	if dim == 0 {
		dim = len(r.Vector)
	}
	return &models.Embedding{
		ID:           uuid.New(),
		SceneID:      sceneID,
		ModelName:    modelName,
		ModelVersion: r.Version,
		Dimension:    dim,
		Vector:       r.Vector,
	}
}
