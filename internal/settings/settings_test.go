package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	values map[string]json.RawMessage
	getErr error
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string]json.RawMessage)}
}

func (m *memKV) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.values[key], nil
}

func (m *memKV) SetSetting(_ context.Context, key string, value json.RawMessage) error {
	m.values[key] = value
	return nil
}

func TestDefaults(t *testing.T) {
	s := New(newMemKV())
	ctx := context.Background()

	folders, err := s.WatchFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)

	state, err := s.IndexerState(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)

	interval, err := s.PollInterval(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, interval)

	toggles, err := s.EnrichmentModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageToggles{Clip: true, Whisper: true, TranscriptEmbed: true, Arcface: true}, toggles)
	assert.Equal(t, 4, toggles.EnabledCount())

	posters, err := s.PosterSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, PosterSettings{Width: 1280, Format: "webp", Quality: 80}, posters)

	scene, err := s.SceneThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.4, scene)

	thresholds, err := s.SearchThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), thresholds)

	faces, scenes, err := s.ClusterEpsilons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.55, faces)
	assert.Equal(t, 0.20, scenes)
}

func TestWatchFoldersRoundTrip(t *testing.T) {
	s := New(newMemKV())
	ctx := context.Background()

	require.NoError(t, s.SetWatchFolders(ctx, []string{"/mnt/archive", "/mnt/incoming"}))
	folders, err := s.WatchFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/mnt/archive", "/mnt/incoming"}, folders)
}

func TestIndexerStateNormalizesUnknownValues(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyIndexerState] = json.RawMessage(`"stopped"`)
	s := New(kv)

	state, err := s.IndexerState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)

	kv.values[KeyIndexerState] = json.RawMessage(`"paused"`)
	state, err = s.IndexerState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaused, state)
}

func TestPollIntervalRejectsNonPositive(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyPollInterval] = json.RawMessage(`-30`)
	s := New(kv)

	interval, err := s.PollInterval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, interval)

	kv.values[KeyPollInterval] = json.RawMessage(`120`)
	interval, err = s.PollInterval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, interval)
}

func TestPosterSettingsClampsBadValues(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyPosterWidth] = json.RawMessage(`-5`)
	kv.values[KeyPosterFormat] = json.RawMessage(`"png"`)
	kv.values[KeyPosterQuality] = json.RawMessage(`150`)
	s := New(kv)

	ps, err := s.PosterSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PosterSettings{Width: 1280, Format: "webp", Quality: 80}, ps)

	kv.values[KeyPosterFormat] = json.RawMessage(`"jpg"`)
	kv.values[KeyPosterWidth] = json.RawMessage(`640`)
	kv.values[KeyPosterQuality] = json.RawMessage(`90`)
	ps, err = s.PosterSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PosterSettings{Width: 640, Format: "jpg", Quality: 90}, ps)
}

func TestSceneThresholdClampsOutOfRange(t *testing.T) {
	kv := newMemKV()
	s := New(kv)

	kv.values[KeySceneThreshold] = json.RawMessage(`1.5`)
	threshold, err := s.SceneThreshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.4, threshold)

	kv.values[KeySceneThreshold] = json.RawMessage(`0.25`)
	threshold, err = s.SceneThreshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.25, threshold)
}

func TestSearchThresholdsPartialOverride(t *testing.T) {
	kv := newMemKV()
	kv.values[KeyThresholdFace] = json.RawMessage(`0.4`)
	s := New(kv)

	thresholds, err := s.SearchThresholds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.10, thresholds.Visual)
	assert.Equal(t, 0.4, thresholds.Face)
}

func TestSetRawRejectsInvalidJSON(t *testing.T) {
	s := New(newMemKV())

	err := s.SetRaw(context.Background(), "some_key", json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	require.NoError(t, s.SetRaw(context.Background(), "some_key", json.RawMessage(`{"a": 1}`)))
	raw, err := s.Raw(context.Background(), "some_key")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(raw))
}

func TestGetErrorSurfacesDefaultAndError(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errors.New("db down")
	s := New(kv)

	state, err := s.IndexerState(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateRunning, state)

	interval, err := s.PollInterval(context.Background())
	require.Error(t, err)
	assert.Equal(t, time.Hour, interval)
}
