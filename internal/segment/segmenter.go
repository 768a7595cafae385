// Package segment turns a video file into its scene rows: cut
// detection through ffmpeg, interval construction, one poster frame
// per scene.
package segment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/media"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/settings"
)

// Store persists the detected scenes.
type Store interface {
	ReplaceScenes(ctx context.Context, fileID uuid.UUID, scenes []models.Scene) error
}

// Settings supplies the tunables read fresh per run.
type Settings interface {
	SceneThreshold(ctx context.Context) (float64, error)
	PosterSettings(ctx context.Context) (settings.PosterSettings, error)
}

// FrameSource is the ffmpeg surface the segmenter drives.
type FrameSource interface {
	DetectCuts(ctx context.Context, path string, threshold float64) ([]float64, error)
	ExtractFrame(ctx context.Context, path string, ts float64, width int, format media.FrameFormat, quality int) ([]byte, error)
}

// PosterSink stores rendered poster images.
type PosterSink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

type Segmenter struct {
	store    Store
	settings Settings
	frames   FrameSource
	posters  PosterSink
}

func New(store Store, settingsStore Settings, frames FrameSource, posters PosterSink) *Segmenter {
	return &Segmenter{store: store, settings: settingsStore, frames: frames, posters: posters}
}

// Process detects cuts in the file, replaces its scene rows and renders
// one poster per scene. Detector failures degrade to a single
// whole-file scene; poster failures leave that scene without a poster.
func (s *Segmenter) Process(ctx context.Context, file *models.File) ([]models.Scene, error) {
	threshold, err := s.settings.SceneThreshold(ctx)
	if err != nil {
		slog.Warn("load scene threshold, using default", "error", err)
	}

	duration := 0.0
	if file.DurationSeconds != nil {
		duration = *file.DurationSeconds
	}

	cuts, err := s.frames.DetectCuts(ctx, file.Path, threshold)
	if err != nil {
		slog.Warn("cut detection failed, falling back to whole-file scene",
			"file_id", file.ID, "path", file.Path, "error", err)
		cuts = nil
	}

	intervals := buildIntervals(cuts, duration)

	posterCfg, err := s.settings.PosterSettings(ctx)
	if err != nil {
		slog.Warn("load poster settings, using defaults", "error", err)
	}
	format := media.FrameFormatWebP
	if posterCfg.Format == "jpg" {
		format = media.FrameFormatJPG
	}

	fps := 24.0
	if file.FPS != nil && *file.FPS > 0 {
		fps = *file.FPS
	}

	scenes := make([]models.Scene, 0, len(intervals))
	for i, iv := range intervals {
		scene := models.Scene{
			ID:         uuid.New(),
			FileID:     file.ID,
			SceneIndex: i,
			StartTC:    iv[0],
			EndTC:      iv[1],
		}

		ts := posterTimestamp(iv[0], iv[1], fps)
		data, err := s.frames.ExtractFrame(ctx, file.Path, ts, posterCfg.Width, format, posterCfg.Quality)
		if err != nil {
			slog.Warn("poster extraction failed, scene kept without poster",
				"file_id", file.ID, "scene_index", i, "ts", ts, "error", err)
		} else {
			key := PosterKey(file.ID, i, string(format))
			if err := s.posters.Put(ctx, key, data, format.ContentType()); err != nil {
				slog.Warn("poster store failed, scene kept without poster",
					"file_id", file.ID, "scene_index", i, "key", key, "error", err)
			} else {
				scene.PosterKey = &key
			}
		}

		scenes = append(scenes, scene)
	}

	if err := s.store.ReplaceScenes(ctx, file.ID, scenes); err != nil {
		return nil, fmt.Errorf("replace scenes for %s: %w", file.ID, err)
	}
	observability.ScenesDetected.Add(float64(len(scenes)))
	return scenes, nil
}

// buildIntervals converts ascending cut timestamps into half-open
// [start, end) scene intervals covering [0, duration). Cuts outside
// (0, duration) are ignored; no usable cuts means one whole-file scene.
func buildIntervals(cuts []float64, duration float64) [][2]float64 {
	if duration < 0 {
		duration = 0
	}
	bounds := []float64{0}
	for _, c := range cuts {
		if c <= 0 || c >= duration {
			continue
		}
		if c <= bounds[len(bounds)-1] {
			continue
		}
		bounds = append(bounds, c)
	}
	bounds = append(bounds, duration)

	intervals := make([][2]float64, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		intervals = append(intervals, [2]float64{bounds[i], bounds[i+1]})
	}
	return intervals
}

// posterTimestamp is the midpoint of the interval backed off one frame
// from the exclusive end, so the grab never lands on the next scene's
// first frame. Never before start.
func posterTimestamp(start, end, fps float64) float64 {
	if fps <= 0 {
		fps = 24
	}
	ts := (start + end - 1/fps) / 2
	if ts < start {
		ts = start
	}
	return ts
}

// PosterKey names a scene's poster object: fileID_0000.webp style,
// stable across re-renders of the same scene index.
func PosterKey(fileID uuid.UUID, sceneIndex int, ext string) string {
	return fmt.Sprintf("%s_%04d.%s", fileID, sceneIndex, ext)
}
