package segment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/cinedex/internal/media"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/settings"
)

func TestBuildIntervals(t *testing.T) {
	tests := []struct {
		name     string
		cuts     []float64
		duration float64
		want     [][2]float64
	}{
		{
			name:     "no cuts single scene",
			cuts:     nil,
			duration: 10,
			want:     [][2]float64{{0, 10}},
		},
		{
			name:     "two cuts three scenes",
			cuts:     []float64{3, 7},
			duration: 10,
			want:     [][2]float64{{0, 3}, {3, 7}, {7, 10}},
		},
		{
			name:     "cuts outside range dropped",
			cuts:     []float64{-1, 0, 5, 10, 12},
			duration: 10,
			want:     [][2]float64{{0, 5}, {5, 10}},
		},
		{
			name:     "non increasing cuts dropped",
			cuts:     []float64{4, 4, 2, 6},
			duration: 10,
			want:     [][2]float64{{0, 4}, {4, 6}, {6, 10}},
		},
		{
			name:     "zero duration",
			cuts:     []float64{1, 2},
			duration: 0,
			want:     [][2]float64{{0, 0}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, buildIntervals(tc.cuts, tc.duration))
		})
	}
}

func TestPosterTimestamp(t *testing.T) {
	// Midpoint backed off half a frame: (0 + 10 - 1/25) / 2.
	assert.InDelta(t, 4.98, posterTimestamp(0, 10, 25), 1e-9)

	// Never before the scene start, even for sub-frame scenes.
	assert.Equal(t, 5.0, posterTimestamp(5.0, 5.01, 24))

	// Zero fps falls back to 24.
	assert.InDelta(t, (0+10-1.0/24)/2, posterTimestamp(0, 10, 0), 1e-9)
}

func TestPosterKey(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8_0007.webp", PosterKey(id, 7, "webp"))
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8_0000.jpg", PosterKey(id, 0, "jpg"))
}

type fakeStore struct {
	fileID uuid.UUID
	scenes []models.Scene
	err    error
}

func (f *fakeStore) ReplaceScenes(_ context.Context, fileID uuid.UUID, scenes []models.Scene) error {
	f.fileID = fileID
	f.scenes = scenes
	return f.err
}

type fakeSettings struct{}

func (fakeSettings) SceneThreshold(context.Context) (float64, error) { return 0.4, nil }
func (fakeSettings) PosterSettings(context.Context) (settings.PosterSettings, error) {
	return settings.PosterSettings{Width: 1280, Format: "webp", Quality: 80}, nil
}

type fakeFrames struct {
	cuts     []float64
	cutsErr  error
	frameErr error
	grabbed  []float64
}

func (f *fakeFrames) DetectCuts(context.Context, string, float64) ([]float64, error) {
	return f.cuts, f.cutsErr
}

func (f *fakeFrames) ExtractFrame(_ context.Context, _ string, ts float64, _ int, _ media.FrameFormat, _ int) ([]byte, error) {
	if f.frameErr != nil {
		return nil, f.frameErr
	}
	f.grabbed = append(f.grabbed, ts)
	return []byte("img"), nil
}

type fakePosters struct {
	keys []string
	err  error
}

func (f *fakePosters) Put(_ context.Context, key string, _ []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func testFile(duration float64) *models.File {
	fps := 25.0
	return &models.File{ID: uuid.New(), Path: "/media/a.mp4", DurationSeconds: &duration, FPS: &fps}
}

func TestProcess_ScenesWithPosters(t *testing.T) {
	store := &fakeStore{}
	frames := &fakeFrames{cuts: []float64{4}}
	posters := &fakePosters{}
	s := New(store, fakeSettings{}, frames, posters)

	file := testFile(10)
	scenes, err := s.Process(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	assert.Equal(t, file.ID, store.fileID)
	assert.Equal(t, scenes, store.scenes)

	assert.Equal(t, 0, scenes[0].SceneIndex)
	assert.Equal(t, 0.0, scenes[0].StartTC)
	assert.Equal(t, 4.0, scenes[0].EndTC)
	assert.Equal(t, 4.0, scenes[1].StartTC)
	assert.Equal(t, 10.0, scenes[1].EndTC)

	require.NotNil(t, scenes[0].PosterKey)
	assert.Equal(t, fmt.Sprintf("%s_0000.webp", file.ID), *scenes[0].PosterKey)
	assert.Len(t, posters.keys, 2)
}

func TestProcess_CutDetectionFailureFallsBackToWholeFile(t *testing.T) {
	store := &fakeStore{}
	frames := &fakeFrames{cutsErr: errors.New("ffmpeg exploded")}
	s := New(store, fakeSettings{}, frames, &fakePosters{})

	scenes, err := s.Process(context.Background(), testFile(42))
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, 0.0, scenes[0].StartTC)
	assert.Equal(t, 42.0, scenes[0].EndTC)
}

func TestProcess_PosterFailureKeepsScene(t *testing.T) {
	store := &fakeStore{}
	frames := &fakeFrames{frameErr: errors.New("no frame")}
	s := New(store, fakeSettings{}, frames, &fakePosters{})

	scenes, err := s.Process(context.Background(), testFile(10))
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Nil(t, scenes[0].PosterKey)
}

func TestProcess_PosterStoreFailureKeepsScene(t *testing.T) {
	store := &fakeStore{}
	frames := &fakeFrames{}
	posters := &fakePosters{err: errors.New("disk full")}
	s := New(store, fakeSettings{}, frames, posters)

	scenes, err := s.Process(context.Background(), testFile(10))
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Nil(t, scenes[0].PosterKey)
}

func TestProcess_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	s := New(store, fakeSettings{}, &fakeFrames{}, &fakePosters{})

	_, err := s.Process(context.Background(), testFile(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replace scenes")
}
