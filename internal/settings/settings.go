// Package settings provides typed access to the operator-tunable
// key/value store. Values live in the database so edits apply on the
// next indexer cycle without a restart; every getter reads fresh and
// falls back to its documented default when the key is unset.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/cinedex/internal/models"
)

// ErrInvalidValue rejects writes that are not valid JSON documents.
var ErrInvalidValue = errors.New("invalid JSON value")

// Recognized keys.
const (
	KeyWatchFolders         = "watch_folders"
	KeyIndexerState         = "indexer_state"
	KeyPollInterval         = "poll_interval_seconds"
	KeyEnrichmentModels     = "enrichment_models"
	KeyPosterWidth          = "poster_width"
	KeyPosterFormat         = "poster_format"
	KeyPosterQuality        = "poster_quality"
	KeySceneThreshold       = "scene_threshold"
	KeyThresholdVisual      = "search_threshold_visual"
	KeyThresholdVisualMatch = "search_threshold_visual_match"
	KeyThresholdFace        = "search_threshold_face"
	KeyThresholdTranscript  = "search_threshold_transcript"
	KeyClusterEpsFaces      = "cluster_epsilon_faces"
	KeyClusterEpsScenes     = "cluster_epsilon_scenes"
	KeyScanProgress         = "scan_progress"
	KeyLastScanAt           = "last_scan_at"
	KeyLastScanDurationMS   = "last_scan_duration_ms"
)

// Indexer states.
const (
	StateRunning = "running"
	StatePaused  = "paused"
)

// KV is the raw settings storage.
type KV interface {
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, key string, value json.RawMessage) error
}

type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

// get unmarshals a key into out. Returns false when the key is unset,
// leaving out untouched so callers keep their default.
func (s *Store) get(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := s.kv.GetSetting(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	return s.kv.SetSetting(ctx, key, raw)
}

// WatchFolders returns the configured scan roots. Default: none.
func (s *Store) WatchFolders(ctx context.Context) ([]string, error) {
	var folders []string
	if _, err := s.get(ctx, KeyWatchFolders, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *Store) SetWatchFolders(ctx context.Context, folders []string) error {
	return s.set(ctx, KeyWatchFolders, folders)
}

// IndexerState returns "running" or "paused". Default: running.
func (s *Store) IndexerState(ctx context.Context) (string, error) {
	state := StateRunning
	if _, err := s.get(ctx, KeyIndexerState, &state); err != nil {
		return StateRunning, err
	}
	if state != StatePaused {
		state = StateRunning
	}
	return state, nil
}

// PollInterval returns the sleep between scan cycles. Default: 1h.
func (s *Store) PollInterval(ctx context.Context) (time.Duration, error) {
	seconds := 3600
	if _, err := s.get(ctx, KeyPollInterval, &seconds); err != nil {
		return time.Hour, err
	}
	if seconds <= 0 {
		seconds = 3600
	}
	return time.Duration(seconds) * time.Second, nil
}

// StageToggles controls which optional enrichment stages run. JSON keys
// are the model names the pipeline reports in job progress.
type StageToggles struct {
	Clip            bool `json:"clip"`
	Whisper         bool `json:"whisper"`
	TranscriptEmbed bool `json:"transcript_embed"`
	Arcface         bool `json:"arcface"`
}

// EnabledCount is the number of optional stages switched on.
func (t StageToggles) EnabledCount() int {
	n := 0
	for _, on := range []bool{t.Clip, t.Whisper, t.TranscriptEmbed, t.Arcface} {
		if on {
			n++
		}
	}
	return n
}

// EnrichmentModels returns the stage toggles. Default: all enabled.
func (s *Store) EnrichmentModels(ctx context.Context) (StageToggles, error) {
	toggles := StageToggles{Clip: true, Whisper: true, TranscriptEmbed: true, Arcface: true}
	if _, err := s.get(ctx, KeyEnrichmentModels, &toggles); err != nil {
		return toggles, err
	}
	return toggles, nil
}

// PosterSettings controls poster rendering. Defaults: 1280 / webp / 80.
type PosterSettings struct {
	Width   int
	Format  string
	Quality int
}

func (s *Store) PosterSettings(ctx context.Context) (PosterSettings, error) {
	ps := PosterSettings{Width: 1280, Format: "webp", Quality: 80}
	if _, err := s.get(ctx, KeyPosterWidth, &ps.Width); err != nil {
		return ps, err
	}
	if _, err := s.get(ctx, KeyPosterFormat, &ps.Format); err != nil {
		return ps, err
	}
	if ps.Format != "jpg" {
		ps.Format = "webp"
	}
	if _, err := s.get(ctx, KeyPosterQuality, &ps.Quality); err != nil {
		return ps, err
	}
	if ps.Width <= 0 {
		ps.Width = 1280
	}
	if ps.Quality <= 0 || ps.Quality > 100 {
		ps.Quality = 80
	}
	return ps, nil
}

// SceneThreshold is the frame content-change score that opens a new
// scene, in ffmpeg's 0..1 scale. Default: 0.4.
func (s *Store) SceneThreshold(ctx context.Context) (float64, error) {
	threshold := 0.4
	if _, err := s.get(ctx, KeySceneThreshold, &threshold); err != nil {
		return 0.4, err
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.4
	}
	return threshold, nil
}

// Thresholds are the per-modality minimum similarities for search.
type Thresholds struct {
	Visual      float64 `json:"visual"`
	VisualMatch float64 `json:"visual_match"`
	Face        float64 `json:"face"`
	Transcript  float64 `json:"transcript"`
}

// DefaultThresholds per modality: visual 0.10, visual match 0.20, face
// 0.25, transcript 0.35.
func DefaultThresholds() Thresholds {
	return Thresholds{Visual: 0.10, VisualMatch: 0.20, Face: 0.25, Transcript: 0.35}
}

func (s *Store) SearchThresholds(ctx context.Context) (Thresholds, error) {
	t := DefaultThresholds()
	if _, err := s.get(ctx, KeyThresholdVisual, &t.Visual); err != nil {
		return t, err
	}
	if _, err := s.get(ctx, KeyThresholdVisualMatch, &t.VisualMatch); err != nil {
		return t, err
	}
	if _, err := s.get(ctx, KeyThresholdFace, &t.Face); err != nil {
		return t, err
	}
	if _, err := s.get(ctx, KeyThresholdTranscript, &t.Transcript); err != nil {
		return t, err
	}
	return t, nil
}

// ClusterEpsilons returns the cosine-distance merge radii for the two
// clustering modalities. Defaults: faces 0.55, scenes 0.20.
func (s *Store) ClusterEpsilons(ctx context.Context) (faces, scenes float64, err error) {
	faces, scenes = 0.55, 0.20
	if _, err = s.get(ctx, KeyClusterEpsFaces, &faces); err != nil {
		return 0.55, 0.20, err
	}
	if _, err = s.get(ctx, KeyClusterEpsScenes, &scenes); err != nil {
		return faces, 0.20, err
	}
	return faces, scenes, nil
}

// ScanProgress returns the live scan document, idle when never scanned.
func (s *Store) ScanProgress(ctx context.Context) (models.ScanProgress, error) {
	progress := models.ScanProgress{Phase: models.ScanPhaseIdle}
	if _, err := s.get(ctx, KeyScanProgress, &progress); err != nil {
		return progress, err
	}
	return progress, nil
}

func (s *Store) SetScanProgress(ctx context.Context, progress models.ScanProgress) error {
	progress.UpdatedAt = time.Now().UTC()
	return s.set(ctx, KeyScanProgress, progress)
}

func (s *Store) SetLastScan(ctx context.Context, at time.Time, duration time.Duration) error {
	if err := s.set(ctx, KeyLastScanAt, at.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.set(ctx, KeyLastScanDurationMS, duration.Milliseconds())
}

// Raw passes through an arbitrary key for the config API.
func (s *Store) Raw(ctx context.Context, key string) (json.RawMessage, error) {
	return s.kv.GetSetting(ctx, key)
}

func (s *Store) SetRaw(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %s: %w", key, ErrInvalidValue)
	}
	return s.kv.SetSetting(ctx, key, value)
}
